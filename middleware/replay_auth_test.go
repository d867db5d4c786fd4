package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"gift-claim-system/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-shared-secret"

func newAuthTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("CLAIM_AUTH_SECRET", testSecret)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.UsedAuthToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	app := fiber.New()
	app.Post("/mutate", ReplayAuthMiddleware(db), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "nonce": c.Locals("auth_nonce")})
	})
	return app
}

func fuseKey(secret, nonce string) string {
	sum := sha256.Sum256([]byte(secret + nonce))
	return hex.EncodeToString(sum[:])
}

func doAuth(t *testing.T, app *fiber.App, nonce, fusedKey string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/mutate", nil)
	if nonce != "" {
		req.Header.Set("x-random-string", nonce)
	}
	if fusedKey != "" {
		req.Header.Set("x-fused-key", fusedKey)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestValidTokenAcceptedOnceThenReplayed(t *testing.T) {
	app := newAuthTestApp(t)

	nonce := "nonce-abc"
	fused := fuseKey(testSecret, nonce)

	if code := doAuth(t, app, nonce, fused); code != fiber.StatusOK {
		t.Fatalf("first use: status %d", code)
	}
	// Identical pair a second time is a replay.
	if code := doAuth(t, app, nonce, fused); code != fiber.StatusUnauthorized {
		t.Fatalf("replay: status %d, want 401", code)
	}
	// A fresh nonce works again.
	if code := doAuth(t, app, "nonce-def", fuseKey(testSecret, "nonce-def")); code != fiber.StatusOK {
		t.Fatalf("fresh nonce: status %d", code)
	}
}

func TestMissingOrInvalidHeadersRejected(t *testing.T) {
	app := newAuthTestApp(t)

	if code := doAuth(t, app, "", ""); code != fiber.StatusUnauthorized {
		t.Fatalf("no headers: status %d", code)
	}
	if code := doAuth(t, app, "nonce-x", ""); code != fiber.StatusUnauthorized {
		t.Fatalf("missing fused key: status %d", code)
	}
	if code := doAuth(t, app, "", fuseKey(testSecret, "nonce-x")); code != fiber.StatusUnauthorized {
		t.Fatalf("missing nonce: status %d", code)
	}
	if code := doAuth(t, app, "nonce-x", fuseKey("wrong-secret", "nonce-x")); code != fiber.StatusUnauthorized {
		t.Fatalf("wrong secret: status %d", code)
	}
	if code := doAuth(t, app, "nonce-x", fuseKey(testSecret, "other-nonce")); code != fiber.StatusUnauthorized {
		t.Fatalf("mismatched nonce: status %d", code)
	}
}
