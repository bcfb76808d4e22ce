package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/sys2doc"
	"github.com/menta2k/sys2doc/internal/sl"
	"github.com/menta2k/sys2doc/internal/utils"
	"github.com/menta2k/sys2doc/pkg/describe"
	"github.com/menta2k/sys2doc/pkg/intake"
)

var (
	//go:embed tmpl/*.html
	tmplFS embed.FS

	indexTmpl *template.Template
)

func init() {
	indexTmpl = template.Must(template.ParseFS(tmplFS, "tmpl/index.html"))
}

// multipart overhead allowed on top of the image size limit
const formSlack = 1 << 20

// Generator is satisfied by *sys2doc.Sys2Doc
type Generator interface {
	Generate(ctx context.Context, src intake.Source) (*sys2doc.Result, error)
}

type Options struct {
	MaxUploadBytes int64
	ThumbnailWidth int
	Accept         []string // file extensions offered by the upload picker
}

type Server struct {
	hs   *http.Server
	gen  Generator
	opts Options
	log  *slog.Logger
}

type ctxKey struct{}

// page is the data rendered by tmpl/index.html
type page struct {
	RequestID      string
	Accept         string
	URL            string
	ThumbnailWidth int
	Result         *sys2doc.Result
	Size           string
	Thumbnail      template.URL
	Error          string
	Disclaimer     string
}

func NewServer(gen Generator, addr string, opts Options, log *slog.Logger) *Server {
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = sys2doc.DefaultOptions().ThumbnailWidth
	}
	if len(opts.Accept) == 0 {
		opts.Accept = intake.DefaultConfig().SupportedFormats
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = intake.DefaultConfig().MaxBytes
	}

	srv := &Server{
		gen:  gen,
		opts: opts,
		log:  log.With(sl.Module("web")),
	}

	srv.hs = &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	s.log.Info("listening", slog.String("addr", s.hs.Addr))
	return s.hs.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.hs.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", s.serveHealth())
	mux.Handle("POST /describe", s.serveDescribe())
	mux.Handle("GET /{$}", s.serveRoot())

	return s.withRequestID(mux)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := uuid.NewString()
		log := s.log.With(slog.String("request_id", id))
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), ctxKey{}, log)))

		log.Debug("request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) logger(req *http.Request) *slog.Logger {
	if log, ok := req.Context().Value(ctxKey{}).(*slog.Logger); ok {
		return log
	}
	return s.log
}

func (s *Server) newPage(w http.ResponseWriter) *page {
	return &page{
		RequestID:      w.Header().Get("X-Request-Id"),
		Accept:         acceptList(s.opts.Accept),
		ThumbnailWidth: s.opts.ThumbnailWidth,
		Disclaimer:     sys2doc.Disclaimer,
	}
}

func (s *Server) serveRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		s.render(w, req, http.StatusOK, s.newPage(w))
	}
}

func (s *Server) serveHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	}
}

func (s *Server) serveDescribe() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		log := s.logger(req)
		p := s.newPage(w)

		req.Body = http.MaxBytesReader(w, req.Body, s.opts.MaxUploadBytes+formSlack)
		if err := req.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				err = intake.ErrTooLarge
			} else {
				err = fmt.Errorf("%w: %v", intake.ErrUnreadableUpload, err)
			}
			log.Debug("bad form", sl.Err(err))
			p.Error = sys2doc.UserMessage(err)
			s.render(w, req, http.StatusBadRequest, p)
			return
		}

		var src intake.Source
		p.URL = strings.TrimSpace(req.FormValue("url"))
		src.URL = p.URL

		upload, file, err := formUpload(req.MultipartForm, "image")
		if err != nil {
			log.Debug("reading upload", sl.Err(err))
			p.Error = sys2doc.UserMessage(err)
			s.render(w, req, http.StatusBadRequest, p)
			return
		}
		if upload != nil {
			defer file.Close()
			src.File = upload
		}

		res, err := s.gen.Generate(req.Context(), src)
		if err != nil {
			p.Error = sys2doc.UserMessage(err)
			s.render(w, req, statusFor(err), p)
			return
		}

		p.Result = res
		p.Size = utils.FormatFileSize(res.Details.Size)
		// Thumbnail is a data URI we produced ourselves
		p.Thumbnail = template.URL(res.Thumbnail)
		s.render(w, req, http.StatusOK, p)
	}
}

// formUpload returns the file submitted under field, or nil when none was
// chosen. Browsers send an empty unnamed part for an untouched file input.
func formUpload(form *multipart.Form, field string) (*intake.Upload, io.Closer, error) {
	if form == nil || len(form.File[field]) == 0 {
		return nil, nil, nil
	}

	fh := form.File[field][0]
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q: %v", intake.ErrUnreadableUpload, fh.Filename, err)
	}

	return &intake.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      f,
	}, f, nil
}

func (s *Server) render(w http.ResponseWriter, req *http.Request, status int, p *page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTmpl.Execute(w, p); err != nil {
		s.logger(req).Error("rendering page", sl.Err(err))
	}
}

func statusFor(err error) int {
	var re *describe.RemoteError
	if errors.As(err, &re) {
		return http.StatusBadGateway
	}
	var fe *intake.FetchError
	if errors.As(err, &fe) && !errors.Is(err, intake.ErrTooLarge) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// acceptList renders extensions for the file input's accept attribute
func acceptList(formats []string) string {
	parts := make([]string, 0, len(formats))
	for _, f := range formats {
		parts = append(parts, "."+strings.TrimPrefix(strings.ToLower(f), "."))
	}
	return strings.Join(parts, ",")
}
