package authkit

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the mount points for the JSON endpoints.
type AuthControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Logout   string
	Me       string
}

// AuthController is a thin JSON surface over the Auther, UserManager, and
// Guard. Hosts that bring their own transport can ignore it entirely.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Auther       *Auther
	Users        *UserManager
	Guard        *Guard
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerUserManager(users *UserManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Users = users
		return c
	}
}

func WithControllerGuard(guard *Guard) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Guard = guard
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Refresh:  "/auth/refresh",
			Logout:   "/auth/logout",
			Me:       "/auth/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing Guard in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.renderError
	}

	return c
}

// RegisterAuthRoutes mounts the JSON endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")
	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")
	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout")
	app.Get(controller.Routes.Me, controller.MeGet).
		SetName("auth.me")
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterInput)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badRequestBody(err))
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(payload))
	}

	result, err := a.Auther.Register(ctx.Context(), *payload)
	if err != nil {
		a.Logger.Error("register error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, result)
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badRequestBody(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, badRequestPayload(err))
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Identifier, payload.Password)
	if err != nil {
		a.Logger.Warn("login failed for %q", payload.Identifier)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, result)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, badRequestBody(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, badRequestPayload(err))
	}

	result, err := a.Auther.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, result)
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	ctx.SetContext(a.Auther.Logout(ctx.Context()))
	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

func (a *AuthController) MeGet(ctx router.Context) error {
	token := bearerToken(ctx)
	if token == "" {
		return a.ErrorHandler(ctx, ErrInvalidToken)
	}

	user, err := a.Guard.Authorize(ctx.Context(), token, nil, "")
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, user.View())
}

func (a *AuthController) renderError(ctx router.Context, err error) error {
	if a.Debug {
		a.Logger.Debug("http error: %s", print.MaybePrettyJSON(err))
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		body := map[string]any{
			"error": rich.Message,
			"code":  rich.TextCode,
		}
		if len(rich.Metadata) > 0 {
			body["metadata"] = rich.Metadata
		}
		return ctx.JSON(statusFromError(rich), body)
	}

	return ctx.JSON(fiber.StatusInternalServerError, map[string]any{
		"error": "internal server error",
	})
}

func statusFromError(err *goerrors.Error) int {
	switch err.Category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryOperation:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequestBody(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body").
		WithCode(goerrors.CodeBadRequest)
}

func badRequestPayload(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid request payload").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(FormatValidationErrorToMap(err))
}

// bearerToken pulls the raw token off the Authorization header.
func bearerToken(ctx router.Context) string {
	raw := ctx.GetString(router.HeaderAuthorization, "")
	const scheme = "Bearer "
	if len(raw) > len(scheme) && raw[:len(scheme)] == scheme {
		return raw[len(scheme):]
	}
	return ""
}
