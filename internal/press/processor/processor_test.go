package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bitable-press/internal/press/feishu"
	"bitable-press/internal/press/model"
)

type staticCredentials model.Credentials

func (s staticCredentials) Credentials(context.Context) (model.Credentials, error) {
	return model.Credentials(s), nil
}

var fullCreds = staticCredentials{AppID: "cli", AppSecret: "sec", AppToken: "app", TableID: "tbl"}

type fakeRemote struct {
	*httptest.Server
	calls atomic.Int32
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","tenant_access_token":"tok","expire":7200}`))
	})
	mux.HandleFunc("/bitable/v1/apps/app/tables/tbl/records", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"has_more":false,"items":[
			{"record_id":"rec1","fields":{"Title":"First Post","Content":"hello","收藏日期":1700000000000}},
			{"record_id":"rec2","fields":{"Title":"Ad","Content":"buy","是广告吗":"纯广告"}},
			{"record_id":"rec3","fields":{"Title":"Draft","Content":"wip","状态":"0"}},
			{"record_id":"rec4","fields":{"Content":"no title"}}
		]}}`))
	})
	mux.HandleFunc("/drive/v1/medias/box1/download", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte("img"))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestProcessor(creds CredentialSource, baseURL string) *Processor {
	p := NewProcessor(zap.NewNop(), creds,
		feishu.NewTokenManager(zap.NewNop(), nil, baseURL),
		feishu.NewClient(zap.NewNop(), nil, baseURL),
	)
	p.Now = func() time.Time { return fixedNow }
	return p
}

func TestProcessor_FetchPosts(t *testing.T) {
	t.Run("fetches and normalizes", func(t *testing.T) {
		remote := newFakeRemote(t)
		p := newTestProcessor(fullCreds, remote.URL)

		list, err := p.FetchPosts(context.Background())

		require.NoError(t, err)
		require.Equal(t, 1, list.Total)
		assert.Equal(t, "rec1", list.Posts[0].ID)
		assert.Equal(t, "first-post", list.Posts[0].Slug)
		assert.Equal(t, int32(2), remote.calls.Load())
	})

	t.Run("token is reused across calls", func(t *testing.T) {
		remote := newFakeRemote(t)
		p := newTestProcessor(fullCreds, remote.URL)

		_, err := p.FetchPosts(context.Background())
		require.NoError(t, err)
		_, err = p.FetchPosts(context.Background())
		require.NoError(t, err)

		// 1 次 token + 2 次 records
		assert.Equal(t, int32(3), remote.calls.Load())
	})

	t.Run("missing configuration makes no remote call", func(t *testing.T) {
		remote := newFakeRemote(t)
		p := newTestProcessor(staticCredentials{AppID: "cli", AppSecret: "sec"}, remote.URL)

		_, err := p.FetchPosts(context.Background())

		var fe *feishu.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, feishu.KindConfiguration, fe.Kind)
		assert.Equal(t, []string{"appToken", "tableId"}, fe.MissingFields)
		assert.Equal(t, int32(0), remote.calls.Load())
	})
}

func TestProcessor_FindPost(t *testing.T) {
	remote := newFakeRemote(t)
	p := newTestProcessor(fullCreds, remote.URL)

	post, err := p.FindPost(context.Background(), "first-post")
	require.NoError(t, err)
	assert.Equal(t, "First Post", post.Title)

	_, err = p.FindPost(context.Background(), "ad")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestProcessor_FetchMedia(t *testing.T) {
	t.Run("only app credentials are required", func(t *testing.T) {
		remote := newFakeRemote(t)
		p := newTestProcessor(staticCredentials{AppID: "cli", AppSecret: "sec"}, remote.URL)

		media, err := p.FetchMedia(context.Background(), " box1 ")

		require.NoError(t, err)
		assert.Equal(t, "image/webp", media.ContentType)
		assert.Equal(t, []byte("img"), media.Data)
	})

	t.Run("empty file id", func(t *testing.T) {
		p := newTestProcessor(fullCreds, "http://127.0.0.1:0")

		_, err := p.FetchMedia(context.Background(), "  ")

		assert.ErrorIs(t, err, ErrEmptyFileID)
	})

	t.Run("missing app secret", func(t *testing.T) {
		p := newTestProcessor(staticCredentials{AppID: "cli"}, "http://127.0.0.1:0")

		_, err := p.FetchMedia(context.Background(), "box1")

		assert.True(t, feishu.IsKind(err, feishu.KindConfiguration))
	})
}

func TestProcessor_WarmToken(t *testing.T) {
	remote := newFakeRemote(t)
	p := newTestProcessor(fullCreds, remote.URL)

	expiresAt, err := p.WarmToken(context.Background())

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7140*time.Second), expiresAt, time.Minute)
	assert.Equal(t, int32(1), remote.calls.Load())
}
