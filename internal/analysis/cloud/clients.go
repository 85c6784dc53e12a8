package cloud

import (
	"context"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"google.golang.org/api/option"
)

// Stager copies a local source into object storage the annotation service can read.
type Stager interface {
	Stage(ctx context.Context, localPath, object string) (uri string, err error)
	Remove(ctx context.Context, object string) error
}

// Annotator submits an annotation request and waits for the long-running operation.
type Annotator interface {
	Submit(ctx context.Context, uri string) (Operation, error)
}

// Operation is a pending annotation.
type Operation interface {
	Wait(ctx context.Context) (*videointelligencepb.AnnotateVideoResponse, error)
}

func clientOptions(cfg *Config) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Project != "" {
		opts = append(opts, option.WithQuotaProject(cfg.Project))
	}
	return opts
}

type gcsStager struct {
	client *gcs.Client
	bucket string
}

func newGCSStager(ctx context.Context, cfg *Config) (*gcsStager, error) {
	client, err := gcs.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &gcsStager{client: client, bucket: cfg.Bucket}, nil
}

func (s *gcsStager) Stage(ctx context.Context, localPath, object string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "video/mp4"

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

func (s *gcsStager) Remove(ctx context.Context, object string) error {
	return s.client.Bucket(s.bucket).Object(object).Delete(ctx)
}

func (s *gcsStager) Close() error {
	return s.client.Close()
}

type viAnnotator struct {
	client *videointelligence.Client
}

func newVIAnnotator(ctx context.Context, cfg *Config) (*viAnnotator, error) {
	client, err := videointelligence.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create video intelligence client: %w", err)
	}
	return &viAnnotator{client: client}, nil
}

func (a *viAnnotator) Submit(ctx context.Context, uri string) (Operation, error) {
	op, err := a.client.AnnotateVideo(ctx, &videointelligencepb.AnnotateVideoRequest{
		InputUri: uri,
		Features: []videointelligencepb.Feature{
			videointelligencepb.Feature_EXPLICIT_CONTENT_DETECTION,
			videointelligencepb.Feature_LABEL_DETECTION,
		},
	})
	if err != nil {
		return nil, err
	}
	return viOperation{op: op}, nil
}

type viOperation struct {
	op *videointelligence.AnnotateVideoOperation
}

func (o viOperation) Wait(ctx context.Context) (*videointelligencepb.AnnotateVideoResponse, error) {
	return o.op.Wait(ctx)
}

func (a *viAnnotator) Close() error {
	return a.client.Close()
}
