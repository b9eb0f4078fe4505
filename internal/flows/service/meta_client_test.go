package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaClient_PublishPublicKey(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotPath, gotAuth, gotKey string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, r.ParseForm())
			gotKey = r.PostFormValue("business_public_key")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewMetaClient(server.Client(), server.URL, "123456", "token-abc")

		err := client.PublishPublicKey(context.Background(), "-----BEGIN PUBLIC KEY-----\n...")
		require.NoError(t, err)

		assert.Equal(t, "/123456/whatsapp_business_encryption", gotPath)
		assert.Equal(t, "Bearer token-abc", gotAuth)
		assert.Contains(t, gotKey, "BEGIN PUBLIC KEY")
	})

	t.Run("Error_Non2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
		}))
		defer server.Close()

		client := NewMetaClient(server.Client(), server.URL, "123456", "bad-token")

		err := client.PublishPublicKey(context.Background(), "key")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})

	t.Run("Error_ContextTimeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewMetaClient(server.Client(), server.URL, "123456", "token")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := client.PublishPublicKey(ctx, "key")
		assert.Error(t, err)
	})
}
