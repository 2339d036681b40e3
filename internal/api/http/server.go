package http

import (
	"net/http"

	"library-backend/internal/clock"
	"library-backend/internal/security"
	"library-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Services holds the service dependencies of the REST API
type Services struct {
	Auth       service.AuthService
	User       service.UserService
	Book       service.BookService
	Loan       service.LoanService
	Membership service.MembershipService
}

// Server is the REST API. Every route is named; the name selects the
// security level in config.RouteSecurityConfig.
type Server struct {
	router   *mux.Router
	services Services
	tokens   security.TokenManager
	clock    clock.Clock
	validate *validator.Validate
}

func NewServer(services Services, tokens security.TokenManager, clk clock.Clock) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		services: services,
		tokens:   tokens,
		clock:    clk,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.recoverPanic, s.requestID, s.logRequest, s.authenticate)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet).Name("health")

	api := r.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost).Name("auth.register")
	auth.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost).Name("auth.login")
	auth.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost).Name("auth.refresh")
	auth.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost).Name("auth.logout")
	auth.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet).Name("auth.profile.get")
	auth.HandleFunc("/profile", s.handleUpdateProfile).Methods(http.MethodPut, http.MethodPatch).Name("auth.profile.update")

	books := api.PathPrefix("/books").Subrouter()
	books.HandleFunc("", s.handleListBooks).Methods(http.MethodGet).Name("books.list")
	books.HandleFunc("", s.handleCreateBook).Methods(http.MethodPost).Name("books.create")
	books.HandleFunc("/{id:[0-9]+}", s.handleGetBook).Methods(http.MethodGet).Name("books.get")
	books.HandleFunc("/{id:[0-9]+}", s.handleUpdateBook).Methods(http.MethodPut, http.MethodPatch).Name("books.update")
	books.HandleFunc("/{id:[0-9]+}", s.handleDeleteBook).Methods(http.MethodDelete).Name("books.delete")

	loans := api.PathPrefix("/loans").Subrouter()
	loans.HandleFunc("/borrow", s.handleBorrow).Methods(http.MethodPost).Name("loans.borrow")
	loans.HandleFunc("/return", s.handleReturn).Methods(http.MethodPost).Name("loans.return")
	loans.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet).Name("loans.history")
	loans.HandleFunc("/active", s.handleActive).Methods(http.MethodGet).Name("loans.active")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/loans", s.handleAdminListLoans).Methods(http.MethodGet).Name("admin.loans.list")
	admin.HandleFunc("/loans/{id:[0-9]+}", s.handleAdminGetLoan).Methods(http.MethodGet).Name("admin.loans.get")
	admin.HandleFunc("/loans/{id:[0-9]+}/refresh", s.handleAdminRefreshLoan).Methods(http.MethodPost).Name("admin.loans.refresh")
	admin.HandleFunc("/users", s.handleAdminListUsers).Methods(http.MethodGet).Name("admin.users.list")
	admin.HandleFunc("/users/{id:[0-9]+}", s.handleAdminGetUser).Methods(http.MethodGet).Name("admin.users.get")
	admin.HandleFunc("/users/{id:[0-9]+}/membership", s.handleAdminUpdateMembership).Methods(http.MethodPatch, http.MethodPut).Name("admin.users.update")
	admin.HandleFunc("/users/{id:[0-9]+}/deactivate", s.handleAdminDeactivateUser).Methods(http.MethodPost).Name("admin.users.deactivate")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
