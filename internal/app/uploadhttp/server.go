package uploadhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yourname/ufs/internal/fsroot"
	"github.com/yourname/ufs/internal/models"
	"github.com/yourname/ufs/pkg/httperrors"
	"github.com/yourname/ufs/pkg/uploadproto"
)

// Server serves uploads into a validated root directory.
type Server struct {
	root    fsroot.Root
	log     logrus.FieldLogger
	metrics *Metrics
}

// New создаёт HTTP-обработчик загрузок поверх проверенного корня.
func New(root fsroot.Root, log logrus.FieldLogger) http.Handler {
	srv := &Server{
		root:    root,
		log:     log,
		metrics: &Metrics{},
	}

	return srv.routes()
}

// routes регистрирует загрузку и health; прочие методы на / отдают 405.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)

	r.MethodNotAllowed(a.methodNotAllowed)

	r.Post(uploadproto.UploadPath, a.upload)
	r.Get("/health", a.health)

	return r
}

func (a *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.requestLogger(r).WithField("method", r.Method).Debug("method rejected")
	httperrors.Write(w, models.ErrMethodNotAllow)
}
