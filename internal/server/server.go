// Package server exposes edition generation and the archive over HTTP for
// operators.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper"
	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/dateutil"
	"github.com/alnah/go-epaper/internal/store"
)

// Editions is the generation surface the server drives.
type Editions interface {
	Generate(ctx context.Context, req epaper.Request, mode epaper.Mode) (*epaper.Result, error)
	Archive(ctx context.Context, limit int) ([]archive.Entry, error)
	ArticleView(ctx context.Context, id string) ([]byte, error)
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP admin server.
type Server struct {
	echo     *echo.Echo
	editions Editions
	db       Pinger
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithLocation sets the time zone used to resolve edition dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now when resolving "today".
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds a Server with its middleware and routes.
func New(editions Editions, db Pinger, opts ...Option) *Server {
	s := &Server{
		editions: editions,
		db:       db,
		loc:      time.Local,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/healthz", s.handleHealth)
	e.GET("/articles/:id", s.handleArticle)

	api := e.Group("/api")
	api.POST("/editions/preview", s.handleGenerate(epaper.ModePreview))
	api.POST("/editions/download", s.handleGenerate(epaper.ModeDownload))
	api.POST("/editions/publish", s.handleGenerate(epaper.ModePublish))
	api.GET("/archive", s.handleArchive)

	s.echo = e
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// editionRequest is the JSON body of the edition endpoints.
type editionRequest struct {
	Date       string   `json:"date"`
	Categories []string `json:"categories"`
	Limit      int      `json:"limit"`
}

type entryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PublishDate string    `json:"publishDate"`
	PDF         string    `json:"pdf"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Filename string `json:"filename,omitempty"`
	PDF      []byte `json:"pdf,omitempty"`
}

func toEntryResponse(e archive.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Title:       e.Title,
		PublishDate: e.PublishDate.Format(archive.DateLayout),
		PDF:         e.PDFRef,
		Thumbnail:   e.ThumbnailRef,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
	}
}

func (s *Server) handleGenerate(mode epaper.Mode) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body editionRequest
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		day, err := dateutil.ParseEditionDate(body.Date, s.now(), s.loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		res, err := s.editions.Generate(c.Request().Context(), epaper.Request{
			Date:        day,
			CategoryIDs: body.Categories,
			Limit:       body.Limit,
		}, mode)
		if err != nil {
			if keepsPDF(res, err) {
				s.log.Error().Err(err).Str("filename", res.Filename).Msg("publish failed, returning PDF")
				return c.JSON(http.StatusBadGateway, errorResponse{
					Error:    err.Error(),
					Filename: res.Filename,
					PDF:      res.PDF,
				})
			}
			return err
		}

		switch mode {
		case epaper.ModePreview:
			return c.HTMLBlob(http.StatusOK, res.Markup)
		case epaper.ModeDownload:
			c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
			return c.Blob(http.StatusOK, "application/pdf", res.PDF)
		default:
			return c.JSON(http.StatusCreated, toEntryResponse(*res.Entry))
		}
	}
}

// keepsPDF reports whether a failed generation still carries a PDF the
// caller should receive. A refused duplicate is a policy answer, not a
// storage failure.
func keepsPDF(res *epaper.Result, err error) bool {
	return res != nil && len(res.PDF) > 0 && !errors.Is(err, epaper.ErrDuplicateEdition)
}

func (s *Server) handleArchive(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	entries, err := s.editions.Archive(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleArticle(c echo.Context) error {
	page, err := s.editions.ArticleView(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.db != nil {
		if err := s.db.Ping(c.Request().Context()); err != nil {
			s.log.Error().Err(err).Msg("health check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, epaper.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, epaper.ErrEmptySelection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, epaper.ErrInvalidLimit),
		errors.Is(err, epaper.ErrInvalidDate),
		errors.Is(err, epaper.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, epaper.ErrDuplicateEdition):
		return http.StatusConflict
	case errors.Is(err, epaper.ErrArchiveDisabled),
		errors.Is(err, epaper.ErrArticleViewing):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}

	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("component", "http").Str("uri", c.Request().RequestURI).Msg("request failed")
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Error: msg})
}
