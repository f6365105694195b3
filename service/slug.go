package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/Xushengqwer/community_service/constant"
)

// Slugify 把任意标题折叠为 URL 安全的 slug:
// NFKD 分解后去掉组合附加符号，转小写，仅保留 [a-z0-9_]，其余连续字符压缩为一个 '-'。
// 全部字符都被去掉时返回空串，由调用方决定兜底值。
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// truncateTitle 把标题截断到 max 个字符以内，尽量在最后一个空格处断开
func truncateTitle(title string, max int) string {
	r := []rune(title)
	if len(r) <= max {
		return title
	}
	cut := string(r[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut
}

// PostSlugBase 生成帖子 slug 的基础部分: 截断后的标题 + "-" + 创建时间戳
func PostSlugBase(title string, now time.Time) string {
	base := Slugify(truncateTitle(title, constant.MaxTitleLength-constant.PostSlugReserved))
	if base == "" {
		base = "post"
	}
	// 为可能追加的 "-N" 预留空间
	if max := constant.MaxTitleLength - constant.PostSlugReserved - 4; len(base) > max {
		base = strings.TrimRight(base[:max], "-")
	}
	return base + "-" + now.Format(constant.PostSlugTimestampLayout)
}

// CommunitySlugBase 生成社区 slug 的基础部分
func CommunitySlugBase(title string) string {
	base := Slugify(title)
	if base == "" {
		base = "community"
	}
	if max := constant.MaxTitleLength - 4; len(base) > max {
		base = strings.TrimRight(base[:max], "-")
	}
	return base
}

// slugLister 由 PostRepository / CommunityRepository 的 ListSlugsWithPrefix 满足
type slugLister func(ctx context.Context, db *gorm.DB, prefix string) ([]string, error)

// uniqueSlug 在已有 slug 中为 base 找到第一个空位: base, base-1, base-2 ...
// 并发下仍可能撞上唯一索引，调用方需对 ErrRepoDuplicate 重试。
func uniqueSlug(ctx context.Context, db *gorm.DB, list slugLister, base string) (string, error) {
	existing, err := list(ctx, db, base)
	if err != nil {
		return "", fmt.Errorf("查询已有 slug 失败: %w", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base, nil
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}
