package main

import (
	"context"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	common_api "crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/features/activity"
	"crm-imobiliario/internal/features/auth"
	"crm-imobiliario/internal/features/calendar"
	"crm-imobiliario/internal/features/dashboard"
	"crm-imobiliario/internal/features/funnel"
	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/property"
	"crm-imobiliario/internal/features/proposal"
	"crm-imobiliario/internal/features/reporting"
	"crm-imobiliario/internal/features/system"
	"crm-imobiliario/internal/features/user"
	"crm-imobiliario/internal/features/visit"
	"crm-imobiliario/internal/logger"
	"crm-imobiliario/internal/middleware"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/internal/scheduler"
	"crm-imobiliario/pkg/utils"

	_ "crm-imobiliario/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             10 * 1024 * 1024, // spreadsheet imports
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every route in the group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, logger *zap.Logger) {
	for _, route := range routes {
		logger.Debug("setting up route", zap.String("route", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	logger.Info("routes registered", zap.Int("count", len(routes)))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				logger.Info("http server listening", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					logger.Fatal("server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, mongodb *database.MongodbDB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := mongodb.EnsureIndexes(ctx); err != nil {
					logger.Error("failed to ensure indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func NewQueryCache(cfg *config.Config) *querycache.Cache {
	return querycache.New(cfg.QueryCacheTTL)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.SetSecret(cfg.JWTSecret)

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			NewFiberServer,
			database.NewDatabase,
			logger.NewLogger,
			NewQueryCache,
			realtime.NewHub,
			realtime.NewCacheInvalidator,
			func(h *realtime.Hub) realtime.Publisher { return h },

			// Repositories
			user.NewUserRepository,
			user.NewRoleRepository,
			lead.NewLeadRepository,
			lead.NewInteractionRepository,
			funnel.NewStageRepository,
			funnel.NewMembershipRepository,
			property.NewPropertyRepository,
			visit.NewVisitRepository,
			proposal.NewProposalRepository,
			activity.NewActivityRepository,
			dashboard.NewDashboardRepository,
			calendar.NewTokenRepository,
			calendar.NewEventSyncRepository,
			reporting.NewRunRepository,

			calendar.NewGoogleProvider,
			system.NewMongoPinger,

			// Services
			auth.NewAuthService,
			user.NewUserService,
			activity.NewActivityService,
			funnel.NewFunnelService,
			lead.NewLeadService,
			property.NewPropertyService,
			visit.NewVisitService,
			proposal.NewProposalService,
			dashboard.NewDashboardService,
			calendar.NewCalendarService,
			reporting.NewReportingService,
			scheduler.NewScheduler,

			// Interface adapters between features
			func(s funnel.FunnelService) lead.FunnelPlacer { return s },
			func(s calendar.CalendarService) visit.CalendarPusher { return s },
			func(r user.UserRepository) dashboard.UserDirectory { return r },

			// Controllers
			auth.NewAuthController,
			user.NewUserController,
			activity.NewActivityController,
			funnel.NewFunnelController,
			lead.NewLeadController,
			property.NewPropertyController,
			visit.NewVisitController,
			proposal.NewProposalController,
			dashboard.NewDashboardController,
			calendar.NewCalendarController,
			reporting.NewReportingController,
			system.NewSystemController,
			realtime.NewRealtimeController,

			// Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(activity.NewActivityApi),
			AsRoute(funnel.NewFunnelApi),
			AsRoute(lead.NewLeadApi),
			AsRoute(property.NewPropertyApi),
			AsRoute(visit.NewVisitApi),
			AsRoute(proposal.NewProposalApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(calendar.NewCalendarApi),
			AsRoute(reporting.NewReportingApi),
			AsRoute(system.NewSystemApi),
			AsRoute(realtime.NewRealtimeApi),
			AsRoute(scheduler.NewSchedulerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
			func(*realtime.CacheInvalidator) {},
			func(*scheduler.Scheduler) {},
		),
	)

	app.Run()
}
