package tool

import (
	"errors"
	"strings"

	"github.com/workspace-governor/governor/internal/governor"
	"github.com/workspace-governor/governor/internal/pathsafety"
	"github.com/workspace-governor/governor/internal/response"
)

// CreateChangeBundle derives target_files from diffText the same way
// apply_patch does (the MCP tool, grounded on change_bundle.py, takes no
// separate target_files argument): one ValidateAction call using the
// parsed targets, then a filesystem-level path-safety check against the
// same decision, then delegating storage to the governor.
func CreateChangeBundle(g *governor.Governor, diffText string, runID, ownerID string, metadata map[string]any) response.Response {
	matches := diffPathHeader.FindAllStringSubmatch(diffText, -1)
	targetFiles := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := strings.TrimSpace(m[1]); t != "/dev/null" {
			targetFiles = append(targetFiles, t)
		}
	}

	decision := g.ValidateAction("create_change_bundle", governor.RiskWrite, map[string]any{"diff_size": len(diffText), "paths": targetFiles}, runID, ownerID, false)
	if !decision.Allowed() {
		return *decision.BlockResponse
	}

	if len(matches) == 0 {
		meta := g.GetMeta(decision.AuditID, "create_change_bundle", governor.RiskWrite, 0, runID, false)
		return response.Error("Could not parse any target paths from diff", response.CodeInvalidInput, nil, meta)
	}

	for _, target := range targetFiles {
		resolved, err := pathsafety.Resolve(g.Root, target)
		if err == nil {
			err = pathsafety.Validate(resolved, g.Root, g.Config.DenyGlobs, g.Config.AllowPaths)
		}
		if err != nil {
			meta := g.GetMeta(decision.AuditID, "create_change_bundle", governor.RiskWrite, 0, runID, false)
			var pathErr *pathsafety.Error
			if errors.As(err, &pathErr) {
				v := response.Violation{Key: "PATH_OUTSIDE_ALLOW_PATHS", Details: map[string]any{"error": pathErr.Error()}, ConfigPath: ""}
				return response.Blocked("Patch targets unsafe file", v, meta)
			}
			return response.Error(err.Error(), response.CodeToolFailed, nil, meta)
		}
	}

	return g.StoreChangeBundle(decision.AuditID, diffText, targetFiles, runID, metadata, ownerID)
}

func BundleReport(g *governor.Governor, bundleID, runID, ownerID string) response.Response {
	return g.BundleReport(bundleID, runID, ownerID)
}
