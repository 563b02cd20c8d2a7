// Package auth exposes the session lifecycle endpoints: login, token
// rotation and logout. Tokens travel both in the response body and as
// HttpOnly cookies so browser and API clients share one surface.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veyra-hq/veyra/internal/application/auth/dto"
	"github.com/veyra-hq/veyra/internal/application/auth/usecases"
	"github.com/veyra-hq/veyra/internal/shared/config"
	"github.com/veyra-hq/veyra/internal/shared/logger"
	"github.com/veyra-hq/veyra/internal/shared/utils"
)

type Handler struct {
	loginUC       *usecases.LoginUseCase
	refreshUC     *usecases.RefreshUseCase
	cookieConfig  config.CookieConfig
	accessMaxAge  int
	refreshMaxAge int
	logger        logger.Interface
}

func NewHandler(
	loginUC *usecases.LoginUseCase,
	refreshUC *usecases.RefreshUseCase,
	authConfig config.AuthConfig,
	log logger.Interface,
) *Handler {
	return &Handler{
		loginUC:       loginUC,
		refreshUC:     refreshUC,
		cookieConfig:  authConfig.Cookie,
		accessMaxAge:  authConfig.JWT.AccessExpMinutes * 60,
		refreshMaxAge: authConfig.JWT.RefreshExpDays * 24 * 60 * 60,
		logger:        log,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp, err := h.loginUC.Execute(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SetAuthCookies(c, h.cookieConfig, resp.AccessToken, resp.RefreshToken, h.accessMaxAge, h.refreshMaxAge)
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// Refresh handles POST /auth/refresh. The refresh token is read from the
// cookie first so browser clients can rotate with an empty body.
func (h *Handler) Refresh(c *gin.Context) {
	token := utils.GetTokenFromCookie(c, utils.RefreshTokenCookie)
	if token == "" {
		var req dto.RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "refresh token is required")
		return
	}

	resp, err := h.refreshUC.Execute(c.Request.Context(), token)
	if err != nil {
		utils.ClearAuthCookies(c, h.cookieConfig)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SetAuthCookies(c, h.cookieConfig, resp.AccessToken, resp.RefreshToken, h.accessMaxAge, h.refreshMaxAge)
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// Logout handles POST /auth/logout. Tokens are stateless, so logout only
// clears the cookies; the pair stays valid until it expires.
func (h *Handler) Logout(c *gin.Context) {
	utils.ClearAuthCookies(c, h.cookieConfig)
	utils.SuccessResponse(c, http.StatusOK, "logged out", nil)
}
