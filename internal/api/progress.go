package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/academy-client/internal/convert"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// ProgressClient covers /progress.
type ProgressClient struct{ c *Client }

func lessonPath(prefix string, moduleID string, lesson int) string {
	return prefix + url.PathEscape(moduleID) + "/" + strconv.Itoa(lesson)
}

// CompleteLesson marks a lesson completed.
func (p *ProgressClient) CompleteLesson(ctx context.Context, moduleID string, lesson int) (model.CompletionResult, error) {
	var resp wire.CompletionResponse
	path := lessonPath("/progress/lessons/", moduleID, lesson) + "/complete"
	if err := p.c.do(ctx, errs.OpLessonComplete, http.MethodPost, path, authRequired, nil, &resp); err != nil {
		return model.CompletionResult{}, err
	}
	return convert.ToCompletionResult(resp), nil
}

// UncompleteLesson clears the completion mark.
func (p *ProgressClient) UncompleteLesson(ctx context.Context, moduleID string, lesson int) (model.CompletionResult, error) {
	var resp wire.CompletionResponse
	path := lessonPath("/progress/lessons/", moduleID, lesson) + "/complete"
	if err := p.c.do(ctx, errs.OpLessonUncomplete, http.MethodDelete, path, authRequired, nil, &resp); err != nil {
		return model.CompletionResult{}, err
	}
	return convert.ToCompletionResult(resp), nil
}

// LessonStatus reads the stored completion of a lesson.
func (p *ProgressClient) LessonStatus(ctx context.Context, moduleID string, lesson int) (bool, error) {
	var resp wire.LessonStatus
	path := lessonPath("/progress/lessons/", moduleID, lesson) + "/status"
	if err := p.c.do(ctx, errs.OpLessonStatus, http.MethodGet, path, authRequired, nil, &resp); err != nil {
		return false, err
	}
	return resp.IsCompleted, nil
}

// CompleteModule marks every lesson of a module and returns the completed module count.
func (p *ProgressClient) CompleteModule(ctx context.Context, moduleID string) (int, error) {
	var resp wire.ModuleCompletionResponse
	path := "/progress/modules/" + url.PathEscape(moduleID) + "/complete"
	if err := p.c.do(ctx, errs.OpModuleComplete, http.MethodPost, path, authRequired, nil, &resp); err != nil {
		return 0, err
	}
	return resp.CompletedModules, nil
}
