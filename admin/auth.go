package admin

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"portfolio/common"
	"portfolio/models"
	"portfolio/validation"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "user"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (a *AdminModule) registerAuthRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", a.loginLimiter.Middleware(), a.login)
		auth.POST("/logout", a.logout)
		auth.GET("/me", a.me)
	}
}

func (a *AdminModule) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(validation.BindError(err))
		return
	}

	var user *models.User
	var found models.User
	err := a.db.WithContext(c.Request.Context()).Where("username = ?", req.Username).First(&found).Error
	switch {
	case err == nil:
		user = &found
	case !common.IsNotFound(err):
		c.Error(err)
		return
	}

	// nil user still runs a comparison
	if !user.CheckPassword(req.Password) {
		c.Error(common.Unauthorized("invalid credentials"))
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *AdminModule) me(c *gin.Context) {
	user, err := a.sessionUser(c)
	if err != nil {
		c.Error(err)
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user})
}

// sessionUser loads the user of the current session. A session that points
// at a deleted user is cleared and reported as anonymous.
func (a *AdminModule) sessionUser(c *gin.Context) (*models.User, error) {
	session := sessions.Default(c)
	id, ok := session.Get(sessionUserKey).(uint)
	if !ok {
		return nil, nil
	}

	var user models.User
	err := a.db.WithContext(c.Request.Context()).First(&user, id).Error
	if common.IsNotFound(err) {
		session.Clear()
		return nil, session.Save()
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RequireAdmin rejects anonymous requests with 401 and non-admin users
// with 403.
func (a *AdminModule) RequireAdmin(c *gin.Context) {
	user, err := a.sessionUser(c)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	if user == nil {
		c.Error(common.Unauthorized("authentication required"))
		c.Abort()
		return
	}
	if !user.IsAdmin {
		c.Error(common.Forbidden())
		c.Abort()
		return
	}

	c.Set(contextUserKey, user)
	c.Next()
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(contextUserKey).(*models.User)
}

func (a *AdminModule) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(validation.BindError(err))
		return
	}

	user := currentUser(c)
	if !user.CheckPassword(req.CurrentPassword) {
		c.Error(common.ValidationError(common.FieldError{
			Field:   "currentPassword",
			Message: "current password is incorrect",
		}))
		return
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		c.Error(validation.PasswordFieldError("newPassword", err))
		return
	}

	hash, err := models.HashPassword(req.NewPassword)
	if err != nil {
		c.Error(err)
		return
	}
	err = a.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("password_hash", hash).Error
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
