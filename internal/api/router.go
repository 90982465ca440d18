package api

import (
	"net/http"
	"time"

	"prepsheet/internal/api/handler"
	"prepsheet/internal/api/middleware"
	"prepsheet/internal/app/service"
	"prepsheet/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type RouterDeps struct {
	Auth       *middleware.Auth
	AuthSvc    *service.AuthService
	OTPSvc     *service.OTPService
	UserSvc    *service.UserService
	SheetSvc   *service.SheetService
	ProgSvc    *service.ProgressService
	ProblemSvc *service.ProblemService
	SubSvc     *service.SubmissionService
	BlogSvc    *service.BlogService
	ReportSvc  *service.ReportService
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifier reads the token from the Authorization header or the auth
	// cookie; SessionLoader turns valid claims into an account on the
	// request context. Both run on every route so public endpoints can
	// still personalize for signed-in viewers.
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(deps.Auth.SessionLoader)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", handler.NewAuthHandler(deps.AuthSvc, deps.OTPSvc).RegisterRoutes)
		v1.Route("/users", handler.NewUserHandler(deps.UserSvc).RegisterRoutes)
		v1.Route("/sheets", handler.NewSheetHandler(deps.SheetSvc, deps.ProgSvc).RegisterRoutes)
		v1.Route("/problems", handler.NewProblemHandler(deps.ProblemSvc, deps.SubSvc).RegisterRoutes)
		v1.Route("/submissions", handler.NewSubmissionHandler(deps.SubSvc).RegisterRoutes)
		v1.Route("/blog", handler.NewBlogHandler(deps.BlogSvc).RegisterRoutes)
		v1.Route("/reports", handler.NewReportHandler(deps.ReportSvc).RegisterRoutes)
	})

	return r
}
