package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/auth"
	"chat-client/internal/models"
	"chat-client/internal/notify"
	"chat-client/internal/session"
	"chat-client/internal/store"
	"chat-client/internal/transport"
)

func newTestClient(t *testing.T, register func(*gin.Engine)) (*Client, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	sess := session.NewManager(store.NewMemory())
	httpClient := &http.Client{Timeout: 5 * time.Second}
	refresher := auth.NewRefresher(sess, srv.URL, httpClient)
	return NewClient(transport.New(srv.URL, httpClient, sess, refresher, notify.New(16)), sess), sess
}

func TestLoginInstallsSession(t *testing.T) {
	client, sess := newTestClient(t, func(router *gin.Engine) {
		router.POST("/user/login", func(c *gin.Context) {
			var body credentials
			require.NoError(t, c.ShouldBindJSON(&body))
			assert.Equal(t, "alice", body.Username)
			assert.Equal(t, "s3cret", body.Password)
			c.JSON(http.StatusOK, gin.H{
				"accessToken":  "A1",
				"refreshToken": "R1",
				"user":         gin.H{"id": 1, "username": "alice", "nickname": "Alice"},
			})
		})
	})

	s, err := client.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "A1", s.AccessToken)
	assert.Equal(t, 1, s.UserID)
	assert.Equal(t, "Alice", sess.Snapshot().Nickname)
}

func TestLoginFailureLeavesSessionEmpty(t *testing.T) {
	client, sess := newTestClient(t, func(router *gin.Engine) {
		router.POST("/user/login", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "wrong password"})
		})
	})

	_, err := client.Login(context.Background(), "alice", "nope")
	var apiErr *transport.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "wrong password", apiErr.Message)
	assert.True(t, sess.Snapshot().Empty())
}

func TestLogoutClearsSessionEvenWhenServerFails(t *testing.T) {
	client, sess := newTestClient(t, func(router *gin.Engine) {
		router.POST("/user/logout", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "boom"})
		})
	})
	sess.Set(context.Background(), models.Session{AccessToken: "A1", RefreshToken: "R1"})

	err := client.Logout(context.Background())
	require.Error(t, err)
	assert.True(t, sess.Snapshot().Empty(), "a dead server must not pin the session")
}

func TestChatList(t *testing.T) {
	client, sess := newTestClient(t, func(router *gin.Engine) {
		router.GET("/chat/list", func(c *gin.Context) {
			assert.Equal(t, "Bearer A1", c.GetHeader("Authorization"))
			c.JSON(http.StatusOK, []models.Chat{
				{ID: 1, Title: "general", Kind: models.ChatGroup},
				{ID: 2, Title: "bob", Kind: models.ChatPrivate},
			})
		})
	})
	sess.Set(context.Background(), models.Session{AccessToken: "A1", RefreshToken: "R1"})

	chats, err := client.ChatList(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, models.ChatGroup, chats[0].Kind)
}

func TestMessageListBuildsQuery(t *testing.T) {
	client, _ := newTestClient(t, func(router *gin.Engine) {
		router.GET("/message/list", func(c *gin.Context) {
			assert.Equal(t, "7", c.Query("chatId"))
			assert.Equal(t, "50", c.Query("limit"))
			assert.Equal(t, "100", c.Query("offset"))
			c.JSON(http.StatusOK, []models.Message{{ID: 1, Content: "hi", UserID: 3}})
		})
	})

	messages, err := client.MessageList(context.Background(), 7, 50, 100)
	require.NoError(t, err)
	require.Len(t, messages, 1)
}

func TestSendMessageReturnsAcknowledgedMessage(t *testing.T) {
	client, _ := newTestClient(t, func(router *gin.Engine) {
		router.POST("/message", func(c *gin.Context) {
			var body struct {
				ChatID  int    `json:"chatId"`
				Content string `json:"content"`
			}
			require.NoError(t, c.ShouldBindJSON(&body))
			c.JSON(http.StatusOK, models.Message{ID: 42, Content: body.Content, UserID: 1})
		})
	})

	msg, err := client.SendMessage(context.Background(), 7, "hello")
	require.NoError(t, err)
	assert.Equal(t, 42, msg.ID)
	assert.Equal(t, "hello", msg.Content)
}

func TestResolveInvite(t *testing.T) {
	client, _ := newTestClient(t, func(router *gin.Engine) {
		router.PUT("/chat/:chatId/invite/:inviteId", func(c *gin.Context) {
			assert.Equal(t, "8", c.Param("chatId"))
			assert.Equal(t, "3", c.Param("inviteId"))
			var body struct {
				Action string `json:"action"`
			}
			require.NoError(t, c.ShouldBindJSON(&body))
			assert.Equal(t, "accept", body.Action)
			c.Status(http.StatusOK)
		})
	})

	require.NoError(t, client.ResolveInvite(context.Background(), 8, 3, "accept"))
}

func TestUploadFile(t *testing.T) {
	client, _ := newTestClient(t, func(router *gin.Engine) {
		router.POST("/upload", func(c *gin.Context) {
			file, err := c.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "avatar.png", file.Filename)
			c.JSON(http.StatusOK, models.UploadResult{
				URL:          "/uploads/abc.png",
				Filename:     "abc.png",
				OriginalName: file.Filename,
				Size:         file.Size,
			})
		})
	})

	result, err := client.UploadFile(context.Background(), "avatar.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc.png", result.URL)
	assert.Equal(t, "avatar.png", result.OriginalName)
	assert.Equal(t, int64(len("png-bytes")), result.Size)
}
