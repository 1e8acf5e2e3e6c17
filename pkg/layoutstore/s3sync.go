// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package layoutstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/wavetermdev/riptide/pkg/rtbase"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

// snapshotExport is the wire envelope for snapshots synced through S3.
// RiptideVersion gates imports: majors must match.
type snapshotExport struct {
	RiptideVersion string          `json:"riptideversion"`
	Name           string          `json:"name"`
	Version        int             `json:"version"`
	CreatedTs      int64           `json:"createdts"`
	ModifiedTs     int64           `json:"modifiedts"`
	Content        json.RawMessage `json:"content"`
}

func GetAWSConfig(ctx context.Context, profile string) (*aws.Config, error) {
	optfns := []func(*config.LoadOptions) error{}
	if profile != "" {
		optfns = append(optfns, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, optfns...)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}
	return &cfg, nil
}

// ExportSnapshotToS3 uploads the named snapshot to s3://bucket/key.
func ExportSnapshotToS3(ctx context.Context, profile string, bucket string, key string, name string) error {
	row, err := getSnapshotRow(ctx, name)
	if err != nil {
		return err
	}
	export := snapshotExport{
		RiptideVersion: rtbase.RiptideVersion,
		Name:           row.Name,
		Version:        row.Version,
		CreatedTs:      row.CreatedTs,
		ModifiedTs:     row.ModifiedTs,
		Content:        json.RawMessage(row.Content),
	}
	barr, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("error marshalling snapshot export: %w", err)
	}
	cfg, err := GetAWSConfig(ctx, profile)
	if err != nil {
		return err
	}
	client := s3.NewFromConfig(*cfg)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(barr),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error uploading snapshot %q to s3://%s/%s: %w", name, bucket, key, err)
	}
	log.Printf("[layoutstore] exported snapshot %q to s3://%s/%s\n", name, bucket, key)
	return nil
}

// ImportSnapshotFromS3 downloads s3://bucket/key and stores it locally
// under the name recorded in the export envelope.
func ImportSnapshotFromS3(ctx context.Context, profile string, bucket string, key string) (*SnapshotMeta, error) {
	cfg, err := GetAWSConfig(ctx, profile)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(*cfg)
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("no snapshot at s3://%s/%s: %w", bucket, key, noKey)
		}
		var apiError smithy.APIError
		if errors.As(err, &apiError) {
			return nil, fmt.Errorf("error fetching s3://%s/%s (%s): %w", bucket, key, apiError.ErrorCode(), err)
		}
		return nil, fmt.Errorf("error fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()
	barr, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading s3 object body: %w", err)
	}
	var export snapshotExport
	if err := json.Unmarshal(barr, &export); err != nil {
		return nil, fmt.Errorf("error parsing snapshot export: %w", err)
	}
	if export.Name == "" {
		return nil, fmt.Errorf("snapshot export has no name")
	}
	if !rtbase.IsCompatibleVersion(export.RiptideVersion) {
		return nil, fmt.Errorf("snapshot export version %q is not compatible with riptide %s", export.RiptideVersion, rtbase.RiptideVersion)
	}
	elem, err := vdom.ElemFromJson(export.Content)
	if err != nil {
		return nil, fmt.Errorf("error deserializing snapshot export %q: %w", export.Name, err)
	}
	meta, err := SaveSnapshot(ctx, export.Name, elem)
	if err != nil {
		return nil, err
	}
	log.Printf("[layoutstore] imported snapshot %q from s3://%s/%s\n", export.Name, bucket, key)
	return meta, nil
}

// ListSnapshotsInS3 lists object keys under prefix in the bucket.
func ListSnapshotsInS3(ctx context.Context, profile string, bucket string, prefix string) ([]string, error) {
	cfg, err := GetAWSConfig(ctx, profile)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(*cfg)
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}
