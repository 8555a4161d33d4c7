package integration

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"testing"
	"time"

	"rravin-be/internal/dto"
	"rravin-be/internal/entity"
	"rravin-be/internal/pkg/logger"
	"rravin-be/internal/repository/memory"
	"rravin-be/internal/repository/unitofwork"
	"rravin-be/internal/service"
	"rravin-be/pkg/analysis/artifact"
	"rravin-be/pkg/database"
	"rravin-be/pkg/llm"
	"rravin-be/pkg/tabular"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM stands in for the real provider so the analyze path can be
// driven end to end through the GORM repositories without a model endpoint.
type scriptedLLM struct {
	response string
	calls    int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls++
	return s.response, nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, options...)
}

type discardPublisher struct{}

func (discardPublisher) Publish(ctx context.Context, payload []byte) error { return nil }

type discardLogger struct{}

func (discardLogger) Debug(module, message string, details map[string]interface{}) {}
func (discardLogger) Info(module, message string, details map[string]interface{})  {}
func (discardLogger) Warn(module, message string, details map[string]interface{})  {}
func (discardLogger) Error(module, message string, details map[string]interface{}) {}
func (discardLogger) Sync() error                                                  { return nil }

var _ logger.ILogger = discardLogger{}

func multipartCSV(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("month,revenue\nJan,100\nFeb,120\n"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["files"]
}

// Drives upload and analyze through the real repository layer so model and
// column mapping regressions surface here rather than in production queries.
func TestUploadAnalyzeThroughRepositories(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(os.Getenv("DB_CONNECTION_STRING"))
	require.NoError(t, err)

	uowFactory := unitofwork.NewRepositoryFactory(db)
	stateRepo := memory.NewSessionStateRepository()
	summarizers := tabular.NewRegistry()
	summarizers.Register(entity.FileKindCSV, tabular.NewCSVSummarizer(50))

	provider := &scriptedLLM{response: `{
		"summary": "Revenue grew between January and February.",
		"key_metrics": [{"name": "Total", "value": 220, "trend": "up"}],
		"visualizations": [{"type": "bar", "title": "Monthly", "data": [{"name": "Jan", "value": 100}]}],
		"problems": [],
		"recommendations": [],
		"executive_report": "A short and healthy series."
	}`}

	sessions := service.NewSessionService(uowFactory, stateRepo, 3, discardLogger{})
	uploads := service.NewUploadService(uowFactory, summarizers, t.TempDir(), discardLogger{})
	analyses := service.NewAnalysisService(
		uowFactory,
		provider,
		artifact.NewValidator(),
		summarizers,
		discardPublisher{},
		30*time.Second,
		discardLogger{},
	)

	ctx := context.Background()

	session, err := sessions.CreateOrResume(ctx, "")
	require.NoError(t, err)

	uploadRes, err := uploads.Register(ctx, session.SessionId, multipartCSV(t, "jan_feb.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, uploadRes.TotalFiles)

	analysisRes, err := analyses.Analyze(ctx, &dto.AnalyzeRequest{SessionId: session.SessionId.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "Revenue grew between January and February.", analysisRes.Summary)

	fetched, err := analyses.Get(ctx, analysisRes.AnalysisId)
	require.NoError(t, err)
	assert.Equal(t, analysisRes.AnalysisId, fetched.AnalysisId)

	// The session view lists the new artifact.
	view, err := sessions.Get(ctx, session.SessionId)
	require.NoError(t, err)
	require.Len(t, view.Analyses, 1)
	assert.Equal(t, analysisRes.AnalysisId, view.Analyses[0].AnalysisId)
}
