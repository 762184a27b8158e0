package entity

type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceVideo ResourceType = "video"
)

type MediaObject struct {
	Key      string
	Data     []byte
	Resource ResourceType
}
