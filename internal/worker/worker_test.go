package worker

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"postpilot/internal/adapter/repo"
	"postpilot/internal/domain"
	"postpilot/internal/infra"
	"postpilot/internal/providers/caption"
	"postpilot/internal/providers/image"
	"postpilot/internal/providers/video"
	"postpilot/internal/storage"
)

type fakeImageGen struct {
	err   error
	calls int
}

func (f *fakeImageGen) Generate(ctx context.Context, req image.Request) (*image.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &image.Result{Data: []byte("png-bytes"), MIME: "image/png", Width: 1080, Height: 1080}, nil
}

type fakeVideoGen struct {
	calls int
}

func (f *fakeVideoGen) Generate(ctx context.Context, req video.Request) (*video.Result, error) {
	f.calls++
	return &video.Result{Data: []byte("mp4-bytes"), MIME: "video/mp4", DurationSec: req.DurationSec}, nil
}

type testWorker struct {
	worker *Worker
	jobs   *repo.MemoryJobStore
	assets *repo.MemoryAssetStore
	images *fakeImageGen
	videos *fakeVideoGen
}

func newTestWorker(t *testing.T) *testWorker {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	discard := infra.Logger(zerolog.New(io.Discard))
	tw := &testWorker{
		jobs:   repo.NewMemoryJobStore(),
		assets: repo.NewMemoryAssetStore(),
		images: &fakeImageGen{},
		videos: &fakeVideoGen{},
	}
	tw.worker = New(Options{
		Jobs:              tw.jobs,
		Assets:            tw.assets,
		Captions:          caption.NewStaticGenerator(),
		Images:            tw.images,
		Videos:            tw.videos,
		Store:             store,
		Logger:            &discard,
		PublicBaseURL:     "http://localhost:8080",
		DefaultLocale:     "en",
		Tick:              time.Millisecond,
		GenerationTimeout: time.Second,
	})
	return tw
}

func (tw *testWorker) enqueue(t *testing.T, in domain.GenerateInput) *domain.Job {
	t.Helper()
	in.Normalize()
	job := &domain.Job{
		Kind:      domain.JobKindGeneration,
		Status:    domain.JobStatusPending,
		InputJSON: domain.MustMarshal(in),
	}
	if err := tw.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestDrainCompletesImageJob(t *testing.T) {
	tw := newTestWorker(t)
	ctx := context.Background()
	job := tw.enqueue(t, domain.GenerateInput{Prompt: "new espresso blend", MediaType: domain.MediaTypeImage})

	tw.worker.drain(ctx)

	got, err := tw.jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s (error: %s), want completed", got.Status, got.ErrorMessage)
	}

	var result domain.GenerationResult
	if err := json.Unmarshal(got.ResultJSON, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Content == nil || result.Content.Hook == "" || len(result.Content.Captions) == 0 {
		t.Fatalf("content = %+v, want hook and captions", result.Content)
	}
	if result.Media == nil {
		t.Fatal("image job must produce a media reference")
	}
	if !strings.HasPrefix(result.Media.URL, "http://localhost:8080/media/") {
		t.Fatalf("media url = %q", result.Media.URL)
	}
	if result.Media.MIME != "image/png" || result.Media.Width != 1080 {
		t.Fatalf("media ref = %+v", result.Media)
	}

	assets, err := tw.assets.ListByJobID(ctx, job.ID)
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}
	if len(assets) != 1 || assets[0].Kind != domain.AssetKindImage || assets[0].Bytes == 0 {
		t.Fatalf("assets = %+v, want one stored image", assets)
	}
}

func TestDrainCompletesTextJobWithoutMedia(t *testing.T) {
	tw := newTestWorker(t)
	ctx := context.Background()
	job := tw.enqueue(t, domain.GenerateInput{Prompt: "weekend promo", MediaType: domain.MediaTypeText})

	tw.worker.drain(ctx)

	got, _ := tw.jobs.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	var result domain.GenerationResult
	if err := json.Unmarshal(got.ResultJSON, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Media != nil {
		t.Fatalf("text job produced media: %+v", result.Media)
	}
	if tw.images.calls != 0 || tw.videos.calls != 0 {
		t.Fatal("text job must not call media generators")
	}
}

func TestDrainStoresVideoAsset(t *testing.T) {
	tw := newTestWorker(t)
	ctx := context.Background()
	job := tw.enqueue(t, domain.GenerateInput{Prompt: "store tour", MediaType: domain.MediaTypeVideo, DurationSec: 8})

	tw.worker.drain(ctx)

	got, _ := tw.jobs.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s (error: %s), want completed", got.Status, got.ErrorMessage)
	}
	assets, _ := tw.assets.ListByJobID(ctx, job.ID)
	if len(assets) != 1 || assets[0].Kind != domain.AssetKindVideo || assets[0].DurationSec != 8 {
		t.Fatalf("assets = %+v, want one 8s video", assets)
	}
}

func TestProviderFailureFailsJob(t *testing.T) {
	tw := newTestWorker(t)
	tw.images.err = domain.ErrProviderUnavailable
	ctx := context.Background()
	job := tw.enqueue(t, domain.GenerateInput{Prompt: "new blend", MediaType: domain.MediaTypeImage})

	tw.worker.drain(ctx)

	got, _ := tw.jobs.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.ErrorMessage == "" || got.HasResult() {
		t.Fatalf("failed job = %+v, want error message and no result", got)
	}
}

func TestMalformedInputFailsJob(t *testing.T) {
	tw := newTestWorker(t)
	ctx := context.Background()

	job := &domain.Job{Kind: domain.JobKindGeneration, Status: domain.JobStatusPending, InputJSON: []byte("not json")}
	if err := tw.jobs.Create(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	tw.worker.drain(ctx)

	got, _ := tw.jobs.GetByID(ctx, job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "malformed") {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
}
