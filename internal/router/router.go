package router

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"surveyhub/internal/auth"
	"surveyhub/internal/handler"
	"surveyhub/internal/session"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Survey    *handler.SurveyHandler
	Response  *handler.ResponseHandler
	Analytics *handler.AnalyticsHandler
	LuckyDraw *handler.LuckyDrawHandler
	System    *handler.SystemHandler
}

// Register wires routes and middleware. jwtService may be nil, which
// disables bearer tokens.
func Register(
	e *echo.Echo,
	logger *zap.Logger,
	sessions *session.Manager,
	authorizer *auth.Authorizer,
	jwtService *auth.JWTService,
	h Handlers,
) {
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	e.GET("/healthz", h.System.Health)

	api := e.Group("/api", sessions.Middleware())
	if jwtService != nil {
		api.Use(echojwt.WithConfig(echojwt.Config{
			ContextKey: auth.APITokenContextKey,
			Skipper: func(c echo.Context) bool {
				return c.Request().Header.Get(echo.HeaderAuthorization) == ""
			},
			ParseTokenFunc: func(_ echo.Context, raw string) (interface{}, error) {
				return jwtService.ParseToken(raw)
			},
			// A bad bearer token leaves the request to the cookie session.
			ErrorHandler: func(c echo.Context, err error) error {
				logger.Debug("api token ignored", zap.String("path", c.Path()), zap.Error(err))
				return nil
			},
			ContinueOnIgnoredError: true,
		}))
	}

	public := authorizer.Require(auth.PolicyPublic)
	participant := authorizer.Require(auth.PolicyParticipant)
	member := authorizer.Require(auth.PolicyMember)
	admin := authorizer.Require(auth.PolicyAdmin)

	// Auth routes
	api.POST("/auth/email/login", h.Auth.Login, public)
	api.POST("/auth/email/verify-otp", h.Auth.VerifyOTP, public)
	api.POST("/auth/email/logout", h.Auth.Logout, public)
	api.POST("/auth/token", h.Auth.IssueToken, admin)

	// Profile routes
	api.GET("/me", h.User.GetMe, member)
	api.PUT("/me", h.User.UpdateMe, member)
	api.POST("/me/avatar", h.User.AvatarUpload, member)

	// Survey routes
	api.GET("/surveys", h.Survey.ListSurveys, admin)
	api.POST("/surveys", h.Survey.CreateSurvey, admin)
	api.GET("/surveys/:id", h.Survey.GetSurvey, public)
	api.PUT("/surveys/:id", h.Survey.UpdateSurvey, admin)
	api.DELETE("/surveys/:id", h.Survey.DeleteSurvey, admin)
	api.POST("/surveys/:id/clone", h.Survey.CloneSurvey, admin)

	// Response routes
	api.POST("/surveys/:id/responses", h.Response.CreateResponse, participant)
	api.GET("/surveys/:id/responses", h.Response.ListResponses, member)
	api.GET("/surveys/:id/analytics", h.Analytics.ChartResponses, member)
	api.GET("/responses/submitted", h.Response.SubmittedResponses, member)

	// Lucky draw routes
	api.POST("/lucky-draw/draw", h.LuckyDraw.Draw, admin)
	api.GET("/lucky-draw/winners", h.LuckyDraw.PastWinners, admin)
	api.DELETE("/lucky-draw/winners/:id", h.LuckyDraw.DeleteWinner, admin)

	api.POST("/cache/purge", h.System.PurgeCache, admin)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRequestID: true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

var (
	nricPattern  = regexp.MustCompile(`^\d{3}[A-Z]$`)
	phonePattern = regexp.MustCompile(`^[689]\d{3}\s\d{4}$`)
)

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds the request validator with the nric and phone rules.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("nric", func(fl validator.FieldLevel) bool {
		return nricPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
