// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/spf13/afero"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ErrGetWorkflowFile is returned when a workflow file cannot be fetched.
var ErrGetWorkflowFile = errors.New("failed to get workflow file")

// Load returns the named workflow from src. src is a path on the filesystem returned by
// FsFactory, or any go-getter URL. An empty src loads the built-in demo workflow.
func Load(ctx context.Context, src, name string, vars map[string]string) (Definition, error) {
	if src == "" {
		demo := Demo()
		if name != "" && name != demo.Name {
			return Definition{}, fmt.Errorf("%w: %q", ErrWorkflowNotFound, name)
		}

		return demo, nil
	}

	content, err := read(ctx, src)
	if err != nil {
		return Definition{}, err
	}

	f, err := Parse(content, src, vars)
	if err != nil {
		return Definition{}, err
	}

	return f.Select(name)
}

func read(ctx context.Context, src string) ([]byte, error) {
	fs := FsFactory()

	if ok, _ := afero.Exists(fs, src); ok {
		ctxlog.Debug(ctx, "Reading workflow file", "path", src)

		content, err := afero.ReadFile(fs, src)
		if err != nil {
			return nil, errors.Join(ErrGetWorkflowFile, err)
		}

		return content, nil
	}

	ctxlog.Debug(ctx, "Fetching workflow file", "url", src)

	return Fetch(ctx, src)
}

// Fetch retrieves the content of url using Hashicorp's go-getter.
// The temporary download directory is removed before returning.
func Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrGetWorkflowFile
	}

	tmpDir, err := os.MkdirTemp("", "porchlight-getter-*")
	if err != nil {
		return nil, errors.Join(ErrGetWorkflowFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetWorkflowFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string

	// Remote sources are fetched as a directory and the file read from there.
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrGetWorkflowFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetWorkflowFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetWorkflowFile, err)
	}

	content, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrGetWorkflowFile, err)
	}

	return content, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host and path
)

// splitFileNameFromGetterURL splits a go-getter URL into the URL of the containing
// directory and the file name, keeping any query on the directory URL.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if before, after, found := strings.Cut(last, goGetterRefSeparator); found {
		ref = after
		last = before
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)
	parts[len(parts)-1] = filepath.Dir(last)

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}

// Evaluate evaluates a single HCL expression against vars and renders the value as JSON.
func Evaluate(expr string, vars map[string]string) (string, error) {
	expression, diags := hclsyntax.ParseExpression([]byte(expr), "eval.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		return "", diagsError(diags)
	}

	value, diags := expression.Value(EvalContext(vars))
	if diags.HasErrors() {
		return "", diagsError(diags)
	}

	out, err := ctyjson.SimpleJSONValue{Value: value}.MarshalJSON()
	if err != nil {
		return "", err
	}

	return string(out), nil
}
