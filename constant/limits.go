package constant

// 内容长度限制 (按字符计)
const (
	MaxTitleLength                = 255
	MaxPostContentLength          = 2000
	MaxMessageContentLength       = 1000
	MaxCommunityDescriptionLength = 1000

	// PostSlugTimestampLayout 是帖子 slug 尾部时间戳格式 YYYYMMDDHHMMSS
	PostSlugTimestampLayout = "20060102150405"
	// PostSlugReserved 为时间戳和连接符预留的长度
	PostSlugReserved = len(PostSlugTimestampLayout) + 1
)

// 各列表接口的固定条数上限
const (
	HomeFeedLimit       = 50
	PublicFeedLimit     = 20
	CommunityFeedLimit  = 50
	RecentMessagesLimit = 20
)

// 可接受的图片类型
var AllowedImageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/heic": ".heic",
	"image/heif": ".heif",
}

// DefaultMaxUploadBytes 在配置未指定时使用
const DefaultMaxUploadBytes int64 = 10 << 20
