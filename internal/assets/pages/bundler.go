// Package pages migrates the custom pages a process definition references:
// stage the page's metadata document, rebuild its rendered preview as a
// self-contained static bundle, and recreate the archived bundle on the
// destination tenant.
package pages

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/OmerShlush/trustx-migration/internal/assets/shared"
	"github.com/OmerShlush/trustx-migration/internal/staging"
)

const (
	indexFileName = "index.html"

	dataURIPrefix = "data:"
	anchorPrefix  = "#"

	linkElementTag   = "link"
	scriptElementTag = "script"
	imageElementTag  = "img"

	relAttributeKey  = "rel"
	hrefAttributeKey = "href"
	srcAttributeKey  = "src"

	stylesheetRelToken = "stylesheet"

	previewSavedMessage         = "saved page preview"
	pageAssetDownloadedMessage  = "downloaded page asset"
	pageAssetSkippedWarnMessage = "failed to bundle page asset"

	referenceLogField = "reference"
	pathLogField      = "path"
)

// PreviewBundler turns a page's rendered preview into a self-contained static
// bundle: the normalized document plus every stylesheet, script, and image it
// references, laid out relative to the bundle root.
type PreviewBundler struct {
	logger     *zap.Logger
	downloader shared.ResourceDownloader
	workspace  *staging.Workspace
}

// NewPreviewBundler constructs a PreviewBundler.
func NewPreviewBundler(logger *zap.Logger, downloader shared.ResourceDownloader, workspace *staging.Workspace) *PreviewBundler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewBundler{logger: logger, downloader: downloader, workspace: workspace}
}

// Bundle downloads previewURL, writes the normalized document as index.html
// under bundleDirectory, and downloads each referenced asset next to it.
// References that cannot be fetched or do not map into the bundle are logged
// and skipped; a partial bundle is still archived and usable.
func (bundler *PreviewBundler) Bundle(executionContext context.Context, previewURL string, bundleDirectory string) error {
	previewContent, downloadError := bundler.downloader.DownloadResource(executionContext, previewURL)
	if downloadError != nil {
		return fmt.Errorf("download page preview: %w", downloadError)
	}

	parsedDocument, parseError := html.Parse(bytes.NewReader(previewContent))
	if parseError != nil {
		return fmt.Errorf("parse page preview: %w", parseError)
	}

	var renderedDocument bytes.Buffer
	if renderError := html.Render(&renderedDocument, parsedDocument); renderError != nil {
		return fmt.Errorf("render page preview: %w", renderError)
	}

	indexPath := filepath.Join(bundleDirectory, indexFileName)
	if writeError := bundler.workspace.WriteFile(indexPath, renderedDocument.Bytes()); writeError != nil {
		return writeError
	}
	bundler.logger.Debug(previewSavedMessage, zap.String(pathLogField, indexPath))

	previewBase, baseError := previewBaseURL(previewURL)
	if baseError != nil {
		return baseError
	}

	for _, assetReference := range collectAssetReferences(parsedDocument) {
		if strings.HasPrefix(assetReference, dataURIPrefix) || strings.HasPrefix(assetReference, anchorPrefix) {
			continue
		}

		if bundleError := bundler.bundleAsset(executionContext, previewBase, assetReference, bundleDirectory); bundleError != nil {
			if shared.IsCancellation(bundleError) {
				return bundleError
			}
			bundler.logger.Warn(pageAssetSkippedWarnMessage,
				zap.String(referenceLogField, assetReference),
				zap.Error(bundleError),
			)
		}
	}

	return nil
}

func (bundler *PreviewBundler) bundleAsset(executionContext context.Context, previewBase *url.URL, assetReference string, bundleDirectory string) error {
	referenceURL, parseError := url.Parse(assetReference)
	if parseError != nil {
		return fmt.Errorf("parse asset reference: %w", parseError)
	}

	localBundlePath := filepath.FromSlash(strings.TrimLeft(referenceURL.Path, "/"))
	if len(localBundlePath) == 0 || !filepath.IsLocal(localBundlePath) {
		return fmt.Errorf("asset reference %q does not map into the bundle", assetReference)
	}

	assetContent, downloadError := bundler.downloader.DownloadResource(executionContext, previewBase.ResolveReference(referenceURL).String())
	if downloadError != nil {
		return downloadError
	}

	assetFilePath := filepath.Join(bundleDirectory, localBundlePath)
	if writeError := bundler.workspace.WriteFile(assetFilePath, assetContent); writeError != nil {
		return writeError
	}

	bundler.logger.Debug(pageAssetDownloadedMessage,
		zap.String(referenceLogField, assetReference),
		zap.String(pathLogField, assetFilePath),
	)
	return nil
}

// previewBaseURL derives the directory URL asset references resolve against:
// the preview document's parent, with a trailing slash.
func previewBaseURL(previewURL string) (*url.URL, error) {
	parsedPreviewURL, parseError := url.Parse(previewURL)
	if parseError != nil {
		return nil, fmt.Errorf("parse preview url: %w", parseError)
	}

	directoryPath := path.Dir(strings.TrimSuffix(parsedPreviewURL.Path, "/"))
	if directoryPath == "." {
		directoryPath = "/"
	}
	if !strings.HasSuffix(directoryPath, "/") {
		directoryPath += "/"
	}

	parsedPreviewURL.Path = directoryPath
	parsedPreviewURL.RawQuery = ""
	parsedPreviewURL.Fragment = ""
	return parsedPreviewURL, nil
}

// collectAssetReferences walks the parsed document and returns the stylesheet,
// script, and image references in document order, deduplicated.
func collectAssetReferences(documentRoot *html.Node) []string {
	var references []string
	seenReferences := map[string]bool{}

	appendReference := func(candidate string) {
		trimmedReference := strings.TrimSpace(candidate)
		if len(trimmedReference) == 0 || seenReferences[trimmedReference] {
			return
		}
		seenReferences[trimmedReference] = true
		references = append(references, trimmedReference)
	}

	var walkNodes func(node *html.Node)
	walkNodes = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case linkElementTag:
				if hasStylesheetRel(node) {
					appendReference(attributeValue(node, hrefAttributeKey))
				}
			case scriptElementTag, imageElementTag:
				appendReference(attributeValue(node, srcAttributeKey))
			}
		}
		for childNode := node.FirstChild; childNode != nil; childNode = childNode.NextSibling {
			walkNodes(childNode)
		}
	}
	walkNodes(documentRoot)

	return references
}

func attributeValue(node *html.Node, attributeKey string) string {
	for _, nodeAttribute := range node.Attr {
		if nodeAttribute.Key == attributeKey {
			return nodeAttribute.Val
		}
	}
	return ""
}

func hasStylesheetRel(node *html.Node) bool {
	for _, relToken := range strings.Fields(attributeValue(node, relAttributeKey)) {
		if strings.EqualFold(relToken, stylesheetRelToken) {
			return true
		}
	}
	return false
}
