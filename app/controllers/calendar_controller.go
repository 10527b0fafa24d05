package controllers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/unical-app/unical/app/models"
	"github.com/unical-app/unical/app/repository"
	"github.com/unical-app/unical/internal/pkg/calendarsync"
	"github.com/unical-app/unical/internal/pkg/security"
	"github.com/unical-app/unical/internal/pkg/session"
	"github.com/unical-app/unical/internal/pkg/usercontext"
)

// session key carrying the user through the OAuth redirect round trip
const connectUserKey = "connect_user_id"

var (
	calendarSyncer *calendarsync.Syncer
	credentialSeal *calendarsync.CredentialStore
)

// InitializeCalendarController wires the sync engine into the handlers.
func InitializeCalendarController(syncer *calendarsync.Syncer, creds *calendarsync.CredentialStore) {
	calendarSyncer = syncer
	credentialSeal = creds
}

// HandleCalendarConnect starts the OAuth flow for connecting an external
// calendar. Popup flows cannot set headers, so the auth token is accepted
// as a query parameter and the user id rides the session cookie through
// the provider redirect.
func HandleCalendarConnect(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing token"})
	}
	userID, err := security.VerifyAuthToken(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid or expired token"})
	}

	if err := session.SetSessionValue(c, connectUserKey, strconv.FormatUint(uint64(userID), 10)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Session init failed"})
	}

	return gothfiber.BeginAuthHandler(c)
}

// HandleCalendarCallback completes the provider flow, stores the connected
// account with encrypted tokens and kicks off the initial sync.
func HandleCalendarCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	rawUserID := session.GetSessionValue(c, connectUserKey)
	if rawUserID == "" {
		return c.Status(fiber.StatusUnauthorized).SendString("connect session expired, retry from the app")
	}
	parsed, err := strconv.ParseUint(rawUserID, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("invalid connect session")
	}
	userID := uint(parsed)

	calendarID, calendarName, err := calendarsync.PrimaryGoogleCalendar(c.Context(), u.AccessToken)
	if err != nil {
		log.Errorf("[Calendar] Primary calendar lookup failed for user %d: %v", userID, err)
		calendarID = "primary"
	}
	if calendarName == "" {
		calendarName = u.Email
	}

	accessToken, err := credentialSeal.Seal(u.AccessToken)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("token sealing failed")
	}
	refreshToken, err := credentialSeal.Seal(u.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("token sealing failed")
	}

	acct := &models.CalendarAccount{
		UserID:             userID,
		Provider:           u.Provider,
		AccountEmail:       models.NormalizeEmail(u.Email),
		AccountName:        calendarName,
		ExternalCalendarID: calendarID,
		DisplayColor:       models.DefaultColor(u.Provider),
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		TokenExpiresAt:     u.ExpiresAt,
	}
	if err := acct.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("invalid account data: %v", err))
	}

	repo := repository.GetGlobalFactory().GetAccountRepository()
	if err := repo.Upsert(acct); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("store account failed: %v", err))
	}

	// initial sync runs detached, the popup should close immediately
	go func(accountID uint) {
		if err := calendarSyncer.SyncAccount(context.Background(), accountID); err != nil {
			log.Errorf("[Calendar] Initial sync failed for account %d: %v", accountID, err)
		}
	}(acct.ID)

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString("<!DOCTYPE html><html><body>Calendar connected. You can close this window.<script>window.close();</script></body></html>")
}

type customAccountRequest struct {
	AccountName  string `json:"account_name"`
	AccountEmail string `json:"account_email"`
	DisplayColor string `json:"display_color"`
}

// HandleCreateCustomAccount creates a local calendar that is not backed by
// any external provider. It carries no tokens and is never swept by the
// scheduler.
func HandleCreateCustomAccount(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req customAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	acct := &models.CalendarAccount{
		UserID:             userID,
		Provider:           models.PROVIDER_CUSTOM,
		AccountEmail:       models.NormalizeEmail(req.AccountEmail),
		AccountName:        req.AccountName,
		ExternalCalendarID: uuid.NewString(),
		DisplayColor:       req.DisplayColor,
	}
	if acct.DisplayColor == "" {
		acct.DisplayColor = models.DefaultColor(models.PROVIDER_CUSTOM)
	}
	if err := acct.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetAccountRepository()
	if err := repo.Upsert(acct); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store account"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"account": acct})
}

// HandleListAccounts returns the user's connected calendar accounts.
func HandleListAccounts(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	repo := repository.GetGlobalFactory().GetAccountRepository()
	accounts, err := repo.GetByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load accounts"})
	}
	if accounts == nil {
		accounts = []models.CalendarAccount{}
	}

	return c.JSON(fiber.Map{"accounts": accounts})
}

// HandleRefreshAccount triggers an on-demand sync for one account.
func HandleRefreshAccount(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	accountID, err := strconv.ParseUint(c.Params("accountId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid account id"})
	}

	repo := repository.GetGlobalFactory().GetAccountRepository()
	acct, err := repo.GetByID(uint(accountID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
	}
	if acct.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your account"})
	}

	if err := calendarSyncer.SyncAccount(c.Context(), acct.ID); err != nil {
		return syncErrorResponse(c, err)
	}

	refreshed, err := repo.GetByID(acct.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to reload account"})
	}

	return c.JSON(fiber.Map{"account": refreshed})
}
