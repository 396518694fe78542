package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"alcyxob/program-engine/internal/config"
	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/engine"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Archiver writes pre-delete subtree snapshots to an S3-compatible
// bucket.
type s3Archiver struct {
	client     *s3.Client
	bucketName string
	keyPrefix  string
}

// NewS3Archiver creates a snapshot archiver backed by an S3-compatible
// endpoint.
func NewS3Archiver(cfg config.S3Config) (engine.SubtreeArchiver, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fallback to default AWS endpoint resolution if no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for S3: %v", err)
		return nil, err
	}

	// Force path-style addressing required by most S3-compatible services (like MinIO)
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	log.Printf("Snapshot archiver initialized for endpoint: %s, bucket: %s", cfg.Endpoint, cfg.BucketName)

	return &s3Archiver{
		client:     s3Client,
		bucketName: cfg.BucketName,
		keyPrefix:  "snapshots",
	}, nil
}

// ArchiveSubtree serializes the walked subtree and uploads it under
// snapshots/<owner>/<kind>-<id>-<unix>.json. A failed upload aborts the
// delete that requested it.
func (a *s3Archiver) ArchiveSubtree(ctx context.Context, callerID string, root domain.Node, levels map[domain.Kind][]domain.Node) error {
	snap := NewSnapshot(time.Now().UTC(), callerID, root, levels)
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	objectKey := fmt.Sprintf("%s/%s/%s-%s-%d.json",
		a.keyPrefix, callerID, snap.RootKind, snap.RootID, snap.TakenAt.Unix())

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("ERROR: Failed to upload snapshot '%s' to bucket '%s': %v", objectKey, a.bucketName, err)
		return err
	}

	log.Printf("INFO: Uploaded snapshot '%s' to bucket '%s'", objectKey, a.bucketName)
	return nil
}
