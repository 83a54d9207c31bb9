package handler

import (
	"net/http"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/middleware"
	"bloodcare/internal/service"
	"bloodcare/pkg/pagination"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	auth        *middleware.Authenticator
	cookies     middleware.CookieConfig
}

// NewUserHandler sets up the routing dependencies for User endpoints
func NewUserHandler(userService service.UserService, auth *middleware.Authenticator, cookies middleware.CookieConfig) *UserHandler {
	return &UserHandler{userService: userService, auth: auth, cookies: cookies}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public routes
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.POST("/refresh", h.RefreshToken)
	router.POST("/logout", h.Logout)
	router.GET("/donors/search", h.SearchDonors)

	router.GET("/me", h.auth.RequireAuth(), h.GetMe)

	users := router.Group("/users")
	{
		users.PUT("/me", h.auth.RequireAuth(), h.UpdateProfile)
		users.GET("/:email", h.auth.RequireAuth(), h.GetUserByEmail)
		users.GET("", h.auth.RequireRole(lifecycle.RoleAdmin), h.ListUsers)
		users.PATCH("/:id/status", h.auth.RequireRole(lifecycle.RoleAdmin), h.UpdateStatus)
		users.PATCH("/:id/role", h.auth.RequireRole(lifecycle.RoleAdmin), h.UpdateRole)
	}
}

// Register handles POST /register
// @Summary      Register a donor account
// @Description  Creates an active donor account. Location must be a known district/upazila pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokenRes, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Set tokens as HttpOnly cookies
	middleware.SetTokenCookies(c, h.cookies, tokenRes.AccessToken, tokenRes.RefreshToken)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// RefreshToken handles POST /refresh
// @Summary      Refresh tokens
// @Description  Exchanges a refresh token (cookie or body) for a new token pair. The old refresh token is consumed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh token when not sent as cookie"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /refresh [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	token := refreshTokenFrom(c)

	tokenRes, err := h.userService.Refresh(c.Request.Context(), token)
	if err != nil {
		middleware.ClearTokenCookies(c, h.cookies)
		respondError(c, err)
		return
	}

	middleware.SetTokenCookies(c, h.cookies, tokenRes.AccessToken, tokenRes.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Logout handles POST /logout
// @Summary      Logout
// @Description  Revokes the refresh token and clears auth cookies
// @Tags         auth
// @Produce      json
// @Success      200      {object}  response.Response
// @Router       /logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.userService.Logout(c.Request.Context(), refreshTokenFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	middleware.ClearTokenCookies(c, h.cookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out"}))
}

func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie("refresh_token"); err == nil && token != "" {
		return token
	}
	var req service.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)
	return req.RefreshToken
}

// GetMe handles GET /me to return current authenticated user based on JWT
// @Summary      Get current user
// @Description  Get the currently authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      401      {object}  response.Response
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// GetUserByEmail handles GET /users/:email
// @Summary      Get a user profile by email
// @Description  Users may read their own profile; admins and volunteers may read any
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "User email"
// @Success      200    {object}  response.Response{data=service.UserResponse}
// @Failure      403    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /users/{email} [get]
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	user, err := h.userService.GetByEmail(c.Request.Context(), middleware.CurrentUser(c), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateProfile handles PUT /users/me
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateProfileRequest  true  "Profile fields"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ListUsers handles GET /users
// @Summary      List users
// @Description  Admin only. Optional status filter (active, blocked, all).
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "active | blocked | all"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=pagination.Result[service.UserResponse]}
// @Failure      403     {object}  response.Response
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), middleware.CurrentUser(c), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewResult(users, total, p)))
}

// UpdateStatus handles PATCH /users/:id/status
// @Summary      Block or unblock a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "User ID"
// @Param        payload  body      service.UpdateUserStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /users/{id}/status [patch]
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	user, err := h.userService.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateRole handles PATCH /users/:id/role
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "User ID"
// @Param        payload  body      service.UpdateUserRoleRequest  true  "New role"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	user, err := h.userService.UpdateRole(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// SearchDonors handles GET /donors/search
// @Summary      Search donors
// @Description  Public directory of active donors filtered by blood group and location
// @Tags         users
// @Produce      json
// @Param        bloodGroup  query     string  false  "Blood group, e.g. A+"
// @Param        district    query     string  false  "District"
// @Param        upazila     query     string  false  "Upazila"
// @Success      200         {object}  response.Response{data=[]service.UserResponse}
// @Failure      400         {object}  response.Response
// @Router       /donors/search [get]
func (h *UserHandler) SearchDonors(c *gin.Context) {
	var req service.DonorSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badPayload(c, err)
		return
	}
	donors, err := h.userService.SearchDonors(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, donors))
}
