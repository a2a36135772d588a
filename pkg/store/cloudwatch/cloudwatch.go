// Package cloudwatch implements the dashboard store on top of the AWS
// CloudWatch API.
package cloudwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"

	"github.com/mapr/cwnote/pkg/store"
)

// Config configures the CloudWatch store.
type Config struct {
	// Region overrides the region from the default credential chain
	// (AWS_REGION, profile, IMDS). Empty means use the chain's region.
	Region string
}

// api is the slice of the CloudWatch client the store uses.
type api interface {
	GetDashboard(ctx context.Context, in *cloudwatch.GetDashboardInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetDashboardOutput, error)
	PutDashboard(ctx context.Context, in *cloudwatch.PutDashboardInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutDashboardOutput, error)
	ListDashboards(ctx context.Context, in *cloudwatch.ListDashboardsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.ListDashboardsOutput, error)
}

// Store is a dashboard store backed by the CloudWatch dashboard API.
type Store struct {
	client api
	log    *slog.Logger
}

// New builds a store using the default AWS credential chain, with cfg.Region
// winning over the chain's region when set.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	var optFns []func(*config.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newWithClient(cloudwatch.NewFromConfig(awsCfg), logger), nil
}

func newWithClient(client api, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, log: logger}
}

// ListNames returns every dashboard name in the account/region, following
// pagination until the listing is exhausted.
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	var nextToken *string

	for {
		out, err := s.client.ListDashboards(ctx, &cloudwatch.ListDashboardsInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, mapError(err)
		}

		for _, entry := range out.DashboardEntries {
			if entry.DashboardName != nil {
				names = append(names, *entry.DashboardName)
			}
		}

		if out.NextToken == nil || *out.NextToken == "" {
			break
		}
		nextToken = out.NextToken
	}

	s.log.Debug("listed dashboards", "count", len(names))
	return names, nil
}

// Fetch returns the named dashboard's body.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetDashboard(ctx, &cloudwatch.GetDashboardInput{
		DashboardName: aws.String(name),
	})
	if err != nil {
		return nil, mapError(err)
	}
	if out.DashboardBody == nil {
		return nil, fmt.Errorf("%w: dashboard %q has no body", store.ErrNotFound, name)
	}
	return []byte(*out.DashboardBody), nil
}

// Persist replaces the named dashboard's body.
func (s *Store) Persist(ctx context.Context, name string, body []byte) error {
	out, err := s.client.PutDashboard(ctx, &cloudwatch.PutDashboardInput{
		DashboardName: aws.String(name),
		DashboardBody: aws.String(string(body)),
	})
	if err != nil {
		return mapError(err)
	}

	// PutDashboard can succeed with warnings about the body.
	for _, msg := range out.DashboardValidationMessages {
		s.log.Warn("dashboard validation message",
			"dashboard", name,
			"dataPath", aws.ToString(msg.DataPath),
			"message", aws.ToString(msg.Message))
	}
	return nil
}

// mapError translates CloudWatch API failures into the store's error kinds.
// Anything unrecognized passes through as a transport failure.
func mapError(err error) error {
	var notFound *types.DashboardNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, aws.ToString(notFound.Message))
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "UnrecognizedClientException",
			"InvalidClientTokenId", "ExpiredToken":
			return fmt.Errorf("%w: %s", store.ErrUnauthorized, apiErr.ErrorMessage())
		case "ConcurrentModificationException":
			return fmt.Errorf("%w: %s", store.ErrConflict, apiErr.ErrorMessage())
		}
	}
	return err
}
