package functions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OmerShlush/trustx-migration/internal/assets/functions"
	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/bpmn"
	"github.com/OmerShlush/trustx-migration/internal/staging"
	"github.com/OmerShlush/trustx-migration/internal/trustxapi"
	"github.com/OmerShlush/trustx-migration/internal/versions"
)

type scriptedAssetReader struct {
	page          versions.Page
	detail        trustxapi.AssetDetail
	detailFailure error

	recordedListKind   trustxapi.AssetKind
	recordedListName   string
	recordedDetailKind trustxapi.AssetKind
	recordedDetailID   string
}

func (reader *scriptedAssetReader) ListAssetVersions(_ context.Context, kind trustxapi.AssetKind, assetName string, _ int, _ int) (versions.Page, error) {
	reader.recordedListKind = kind
	reader.recordedListName = assetName
	return reader.page, nil
}

func (reader *scriptedAssetReader) GetAssetDetail(_ context.Context, kind trustxapi.AssetKind, assetIdentifier string) (trustxapi.AssetDetail, error) {
	reader.recordedDetailKind = kind
	reader.recordedDetailID = assetIdentifier
	if reader.detailFailure != nil {
		return trustxapi.AssetDetail{}, reader.detailFailure
	}
	return reader.detail, nil
}

type scriptedAssetWriter struct {
	createdMetadata   trustxapi.AssetMetadata
	createFailure     error
	activatedMetadata trustxapi.AssetMetadata

	recordedCreateKind    trustxapi.AssetKind
	recordedCreateRequest trustxapi.CreateAssetRequest
	recordedActivateID    string
	recordedActivateBody  map[string]any
	activateCalled        bool
}

func (writer *scriptedAssetWriter) CreateAsset(_ context.Context, kind trustxapi.AssetKind, request trustxapi.CreateAssetRequest) (trustxapi.AssetMetadata, error) {
	writer.recordedCreateKind = kind
	writer.recordedCreateRequest = request
	if writer.createFailure != nil {
		return trustxapi.AssetMetadata{}, writer.createFailure
	}
	return writer.createdMetadata, nil
}

func (writer *scriptedAssetWriter) ActivateAsset(_ context.Context, _ trustxapi.AssetKind, assetIdentifier string, activationBody map[string]any) (trustxapi.AssetMetadata, error) {
	writer.activateCalled = true
	writer.recordedActivateID = assetIdentifier
	writer.recordedActivateBody = activationBody
	return writer.activatedMetadata, nil
}

func newTestDependencies(testInstance *testing.T, reader *scriptedAssetReader, writer *scriptedAssetWriter) shared.TextAssetDependencies {
	return shared.TextAssetDependencies{
		Reader:    reader,
		Writer:    writer,
		Resolver:  versions.NewResolver(nil, versions.ResolverOptions{}),
		Workspace: staging.NewWorkspace(testInstance.TempDir()),
	}
}

func TestMigratorFetchStagesScript(testInstance *testing.T) {
	reader := &scriptedAssetReader{
		page: versions.Page{
			Records: []versions.Record{{ID: "cf-3", Version: 3, Status: versions.DeployedActiveStatus}},
			Last:    true,
		},
		detail: trustxapi.AssetDetail{Payload: trustxapi.RawTextPayload("\ndef handler(event):\n    return 1\n")},
	}
	dependencies := newTestDependencies(testInstance, reader, &scriptedAssetWriter{})
	migrator := functions.NewMigrator(dependencies)

	staged, fetchError := migrator.Fetch(context.Background(), bpmn.AssetReference{Name: "score-device"})

	require.NoError(testInstance, fetchError)
	require.Equal(testInstance, "score-device", staged.Name)
	require.Equal(testInstance, versions.Record{ID: "cf-3", Version: 3, Status: versions.DeployedActiveStatus}, staged.SourceRecord)
	require.Equal(testInstance, "def handler(event):\n    return 1", staged.Text)
	require.Equal(testInstance, dependencies.Workspace.CloudFunctionPath("score-device"), staged.StagedPath)

	stagedContent, readError := dependencies.Workspace.ReadFile(staged.StagedPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, staged.Text, string(stagedContent))

	require.Equal(testInstance, trustxapi.CloudFunctionKind, reader.recordedListKind)
	require.Equal(testInstance, "score-device", reader.recordedListName)
	require.Equal(testInstance, trustxapi.CloudFunctionKind, reader.recordedDetailKind)
	require.Equal(testInstance, "cf-3", reader.recordedDetailID)
}

func TestMigratorFetchReportsUnknownFunction(testInstance *testing.T) {
	reader := &scriptedAssetReader{page: versions.Page{Last: true}}
	migrator := functions.NewMigrator(newTestDependencies(testInstance, reader, &scriptedAssetWriter{}))

	_, fetchError := migrator.Fetch(context.Background(), bpmn.AssetReference{Name: "missing-function"})

	require.Error(testInstance, fetchError)
	require.True(testInstance, versions.IsNotFound(fetchError))
}

func TestMigratorPushCreatesActivatesAndPersists(testInstance *testing.T) {
	activationDocument := map[string]any{"id": "fn-9", "name": "score-device", "version": float64(1), "status": "DEPLOYED_ACTIVE"}
	writer := &scriptedAssetWriter{
		createdMetadata:   trustxapi.AssetMetadata{ID: "fn-9", Name: "score-device", Version: 1},
		activatedMetadata: trustxapi.AssetMetadata{ID: "fn-9", Name: "score-device", Version: 1, Raw: activationDocument},
	}
	dependencies := newTestDependencies(testInstance, &scriptedAssetReader{}, writer)
	migrator := functions.NewMigrator(dependencies)
	staged := shared.StagedTextAsset{Name: "score-device", Text: "def handler(event):\n    return 1"}

	outcome, pushError := migrator.Push(context.Background(), staged)

	require.NoError(testInstance, pushError)
	require.Equal(testInstance, shared.MigrationOutcome{Name: "score-device", ID: "fn-9", Version: 1, Raw: activationDocument}, outcome)

	require.Equal(testInstance, trustxapi.CloudFunctionKind, writer.recordedCreateKind)
	require.Equal(testInstance, trustxapi.CreateAssetRequest{Name: "score-device", Resource: staged.Text}, writer.recordedCreateRequest)
	require.Equal(testInstance, "fn-9", writer.recordedActivateID)
	require.Nil(testInstance, writer.recordedActivateBody)

	snapshotContent, readError := dependencies.Workspace.ReadFile(dependencies.Workspace.ResultPath("score-device"))
	require.NoError(testInstance, readError)
	require.JSONEq(testInstance, `{"id":"fn-9","name":"score-device","version":1,"status":"DEPLOYED_ACTIVE"}`, string(snapshotContent))
}

func TestMigratorPushStopsAfterCreateFailure(testInstance *testing.T) {
	writer := &scriptedAssetWriter{createFailure: errors.New("tenant rejected the payload")}
	dependencies := newTestDependencies(testInstance, &scriptedAssetReader{}, writer)
	migrator := functions.NewMigrator(dependencies)

	_, pushError := migrator.Push(context.Background(), shared.StagedTextAsset{Name: "score-device", Text: "def handler(event):\n    return 1"})

	require.Error(testInstance, pushError)
	require.False(testInstance, writer.activateCalled)

	_, readError := dependencies.Workspace.ReadFile(dependencies.Workspace.ResultPath("score-device"))
	require.Error(testInstance, readError)
}
