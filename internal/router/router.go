package router

import (
	"database/sql"
	"net/http"
	"os"

	"med-adherence/internal/adapters/cache"
	mem "med-adherence/internal/adapters/storage/memory"
	pg "med-adherence/internal/adapters/storage/postgres"
	"med-adherence/internal/domain/doselogs"
	"med-adherence/internal/domain/medications"
	"med-adherence/internal/domain/refill"
	"med-adherence/internal/domain/reminders"
	"med-adherence/internal/domain/schedule"
	"med-adherence/internal/middleware"
	"med-adherence/internal/platform/logger"
	"med-adherence/internal/ports/auth"
	"med-adherence/internal/ports/vision"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: modelo de visión para verificación de fotos y escaneo de
	// etiquetas. Nil = esas features responden 503.
	Vision vision.Analyzer

	// Opcional: logger compartido. Nil = se arma desde env.
	Log logger.Logger
}

// Services expone los servicios armados por el router para que main pueda
// colgarles el job nocturno sin duplicar el wiring.
type Services struct {
	Medications medications.Repository
	Reminders   *reminders.Service
}

func NewRouter(opts Options) (http.Handler, Services) {
	r := chi.NewRouter()

	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	var (
		medsRepo  medications.Repository
		dosesRepo doselogs.Repository
		remsRepo  reminders.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		medsRepo = pg.NewMedicationsRepo(db)
		dosesRepo = pg.NewDoseLogsRepo(db)
		remsRepo = pg.NewRemindersRepo(db)
	} else {
		medsRepo = mem.NewMedicationsRepo()
		dosesRepo = mem.NewDoseLogsRepo()
		remsRepo = mem.NewRemindersRepo()
	}

	// Con tamaño positivo la creación del LRU no falla.
	schedCache, _ := cache.NewScheduleCache(cache.DefaultSize)

	// Services por módulo. El parser de esquemas entra al cálculo de
	// resurtido vía schedule.Engine.
	calc := refill.New(schedule.Engine{})
	medsSvc := medications.NewService(medsRepo, calc, schedCache)
	schedSvc := schedule.NewService(medsSvc, schedCache)
	dosesSvc := doselogs.NewService(dosesRepo, medsSvc, opts.Vision, schedCache)
	remsSvc := reminders.NewService(remsRepo, medsSvc, calc)

	// Rutas por módulo
	medications.RegisterRoutes(r, medsSvc, calc, opts.Vision)
	schedule.RegisterRoutes(r, schedSvc)
	doselogs.RegisterRoutes(r, dosesSvc)
	reminders.RegisterRoutes(r, remsSvc)

	return r, Services{
		Medications: medsRepo,
		Reminders:   remsSvc,
	}
}
