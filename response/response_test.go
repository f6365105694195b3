package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/myErrors"
)

func serve(t *testing.T, ctx context.Context, err error) (*httptest.ResponseRecorder, APIResponse[any]) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	RespondServiceError(c, core.WrapZap(zap.NewNop()), err)

	var body APIResponse[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondServiceError_KindMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{myErrors.New(myErrors.KindNotFound, "帖子不存在"), http.StatusNotFound, ErrCodeClientResourceNotFound},
		{myErrors.ErrAlreadyVoted, http.StatusConflict, ErrCodeClientConflict},
		{myErrors.ErrNoExistingVote, http.StatusConflict, ErrCodeClientStateMismatch},
		{myErrors.ErrCommunityNotApproved, http.StatusUnprocessableEntity, ErrCodeClientNotApproved},
		{fmt.Errorf("wrapped: %w", myErrors.ErrMissingParent), http.StatusBadRequest, ErrCodeClientMissingParent},
		{myErrors.ErrInvalidActionToken, http.StatusBadRequest, ErrCodeClientInvalidToken},
	}
	for _, tc := range cases {
		w, body := serve(t, context.Background(), tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, myErrors.MessageOf(tc.err), body.Message)
	}
}

func TestRespondServiceError_HidesInternalDetails(t *testing.T) {
	w, body := serve(t, context.Background(), errors.New("Error 1045: Access denied for user 'root'"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrCodeServerInternal, body.Code)
	assert.Equal(t, "服务器内部错误", body.Message)
	assert.NotContains(t, w.Body.String(), "Access denied")
}

func TestRespondServiceError_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	w, body := serve(t, ctx, fmt.Errorf("查询失败: %w", ctx.Err()))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, ErrCodeServerTimeout, body.Code)
}
