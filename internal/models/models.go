package models

import "time"

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

type SyncState string

const (
	SyncStatePending SyncState = "pending"
	SyncStateSynced  SyncState = "synced"
	SyncStateFailed  SyncState = "failed"
)

type MediaKind string

const (
	MediaKindPhoto MediaKind = "photo"
	MediaKindVideo MediaKind = "video"
)

type RenderStatus string

const (
	RenderStatusPending  RenderStatus = "pending"
	RenderStatusRendered RenderStatus = "rendered"
	RenderStatusFailed   RenderStatus = "failed"
)

type PrintJobStatus string

const (
	PrintJobStatusQueued   PrintJobStatus = "queued"
	PrintJobStatusPrinting PrintJobStatus = "printing"
	PrintJobStatusPrinted  PrintJobStatus = "printed"
	PrintJobStatusFailed   PrintJobStatus = "failed"
)

// Placement is a rectangle on the template canvas, in canvas pixels.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

type Session struct {
	ID        string        `json:"id"`
	BoothID   string        `json:"boothId"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   *time.Time    `json:"endedAt"`
	SyncState SyncState     `json:"syncState"`
}

type MediaAsset struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Kind        MediaKind `json:"kind"`
	LocalPath   string    `json:"localPath"`
	PreviewPath *string   `json:"previewPath"`
	CapturedAt  time.Time `json:"capturedAt"`
	Hash        string    `json:"hash"`
	SyncState   SyncState `json:"syncState"`
}

type FilterSpec struct {
	ID        string  `json:"id"`
	Intensity float64 `json:"intensity"`
}

type StickerSpec struct {
	ID        string  `json:"id"`
	AssetPath string  `json:"assetPath"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Rotation  float64 `json:"rotation"`
}

// Placement returns the sticker's bounding rectangle in canvas coordinates.
func (s StickerSpec) Placement() Placement {
	return Placement{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height, Rotation: s.Rotation}
}

type EditProject struct {
	ID               string        `json:"id"`
	SessionID        string        `json:"sessionId"`
	SelectedAssetIDs []string      `json:"selectedAssetIds"`
	FilterStack      []FilterSpec  `json:"filterStack"`
	Stickers         []StickerSpec `json:"stickers"`
	TemplateID       string        `json:"templateId"`
	RenderStatus     RenderStatus  `json:"renderStatus"`
	OutputPath       *string       `json:"outputPath"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	SyncState        SyncState     `json:"syncState"`
}

type CanvasSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	DPI    int `json:"dpi"`
}

type TemplateSlot struct {
	ID           string    `json:"id"`
	Placement    Placement `json:"placement"`
	CornerRadius float64   `json:"cornerRadius"`
}

type Template struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	CanvasSize     CanvasSize     `json:"canvasSize"`
	Slots          []TemplateSlot `json:"slots"`
	SafeAreas      []Placement    `json:"safeAreas"`
	PrintProfileID string         `json:"printProfileId"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type BrandProfile struct {
	ID            string    `json:"id"`
	LogoAssetID   string    `json:"logoAssetId"`
	LogoPlacement Placement `json:"logoPlacement"`
	QRPlacement   Placement `json:"qrPlacement"`
	DefaultTheme  string    `json:"defaultTheme"`
}

type PrintJob struct {
	ID               string         `json:"id"`
	ProjectID        string         `json:"projectId"`
	Copies           int            `json:"copies"`
	PrinterProfileID string         `json:"printerProfileId"`
	PrinterName      string         `json:"printerName"`
	Status           PrintJobStatus `json:"status"`
	ErrorCode        *string        `json:"errorCode"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type ShareLink struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	PublicToken string     `json:"publicToken"`
	URL         string     `json:"url"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}
