package bootstrap

import (
	"log"

	"rravin-be/internal/config"
	"rravin-be/internal/controller"
	"rravin-be/internal/entity"
	"rravin-be/internal/pkg/logger"
	"rravin-be/internal/repository/memory"
	"rravin-be/internal/repository/unitofwork"
	"rravin-be/internal/service"
	"rravin-be/pkg/analysis/artifact"
	"rravin-be/pkg/llm/factory"
	"rravin-be/pkg/tabular"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

const analysisCreatedTopic = "analysis.created"

type Container struct {
	// Controllers
	SessionController  controller.ISessionController
	UploadController   controller.IUploadController
	AnalysisController controller.IAnalysisController
	ChatController     controller.IChatController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Collaborators
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	summarizers := tabular.NewRegistry()
	summarizers.Register(entity.FileKindCSV, tabular.NewCSVSummarizer(cfg.Ai.SampleRows))

	validator := artifact.NewValidator()
	stateRepo := memory.NewSessionStateRepository()

	// 4. Services
	publisherService := service.NewPublisherService(analysisCreatedTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, analysisCreatedTopic, sysLogger)

	sessionService := service.NewSessionService(uowFactory, stateRepo, cfg.Quota.MaxFiles, sysLogger)
	uploadService := service.NewUploadService(uowFactory, summarizers, cfg.App.UploadDir, sysLogger)
	analysisService := service.NewAnalysisService(
		uowFactory,
		llmProvider,
		validator,
		summarizers,
		publisherService,
		cfg.Ai.RequestTimeout,
		sysLogger,
	)
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		stateRepo,
		cfg.Ai.HistoryWindow,
		cfg.Ai.RequestTimeout,
		sysLogger,
	)

	// 5. Controllers
	return &Container{
		SessionController:  controller.NewSessionController(sessionService),
		UploadController:   controller.NewUploadController(uploadService),
		AnalysisController: controller.NewAnalysisController(analysisService),
		ChatController:     controller.NewChatController(chatService),
		ConsumerService:    consumerService,
	}
}
