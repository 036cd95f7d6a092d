package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"eshop-api/internal/domain"
	customersvc "eshop-api/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func signupHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customersvc.SignupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
			return
		}
		customer, err := svc.Signup(c.Request.Context(), in)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{"detail": "username already taken"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, toCustomerView(*customer))
	}
}

func tokenHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password required"})
			return
		}
		_, access, refresh, err := svc.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, customersvc.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "login failed"})
			return
		}
		c.JSON(http.StatusOK, tokenResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			ExpiresIn:    svc.AccessTTLSeconds(),
		})
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
