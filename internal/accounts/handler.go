package accounts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

// Handler serves the caller's account snapshot.
type Handler struct {
	Repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/account", h.get)
}

// get is read-only: accounts are provisioned by the first generation run, so
// an unknown caller sees the free-plan defaults.
func (h *Handler) get(c *gin.Context) {
	if h.Repo == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	key := middleware.UserIDFromContext(c)
	if key == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}

	acct, err := h.Repo.GetByIdentityKey(c.Request.Context(), key)
	if errors.Is(err, ErrNotFound) {
		respond.OK(c, gin.H{
			"provisioned":      false,
			"plan":             PlanFree,
			"creditsRemaining": FreeCredits,
			"creditsTotal":     FreeCredits,
			"unlimited":        false,
		})
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load account",
			gin.H{"storageCode": StorageCode(err)})
		return
	}

	c.Set(middleware.AccountIDKey, acct.ID)
	respond.OK(c, gin.H{
		"provisioned":      true,
		"id":               acct.ID,
		"email":            acct.Email,
		"plan":             acct.Plan,
		"creditsRemaining": acct.CreditsRemaining,
		"creditsTotal":     acct.CreditsTotal,
		"unlimited":        acct.Unlimited(),
		"createdAt":        acct.CreatedAt,
	})
}
