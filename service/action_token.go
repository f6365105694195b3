package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/models/enums"
	"github.com/Xushengqwer/community_service/myErrors"
)

const (
	defaultActionTokenTTL    = 72 * time.Hour
	defaultActionTokenIssuer = "community_service"
	actionPath               = "/api/v1/community/moderation/actions"
)

// ActionClaims 是一键审核令牌携带的声明: 动作、目标 slug 以及一次性的 jti
type ActionClaims struct {
	Action enums.ModerationAction `json:"act"`
	Target string                 `json:"tgt"`
	jwt.RegisteredClaims
}

// ActionTokenSigner 签发和校验一键审核令牌 (HS256)。
// 令牌只证明"谁签发了什么动作"，一次性由 ActionNonceStore 保证。
type ActionTokenSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewActionTokenSigner 校验配置并创建签名器，secret 不能为空
func NewActionTokenSigner(cfg config.ActionTokenConfig) (*ActionTokenSigner, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("actionTokenConfig.secret 不能为空")
	}
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultActionTokenTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultActionTokenIssuer
	}
	return &ActionTokenSigner{secret: []byte(cfg.Secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue 为 (action, target) 签发新令牌，每次调用的 jti 都不同
func (s *ActionTokenSigner) Issue(action enums.ModerationAction, target string) (string, error) {
	now := s.now()
	claims := ActionClaims{
		Action: action,
		Target: target,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("签发审核令牌失败: %w", err)
	}
	return token, nil
}

// Verify 校验签名、签发方、过期时间和动作类型，任何失败都返回 InvalidActionToken
func (s *ActionTokenSigner) Verify(token string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, myErrors.Wrap(myErrors.KindInvalidActionToken, myErrors.ErrInvalidActionToken.Message, err)
	}
	if !claims.Action.Valid() || claims.Target == "" || claims.ID == "" {
		return nil, myErrors.ErrInvalidActionToken
	}
	return claims, nil
}

// ActionURL 拼出邮件中的一键操作链接
func ActionURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + actionPath + "?token=" + url.QueryEscape(token)
}
