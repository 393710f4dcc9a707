package model

import "time"

// Storage is an external file storage (e.g. a Nextcloud instance).
type Storage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	CreatorID string    `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileLink points from a work package to a file inside a storage.
// OriginID is the file's id on the storage side; the same file can be
// linked through several storages.
type FileLink struct {
	ID          int64     `json:"id"`
	StorageID   int64     `json:"storageId"`
	ContainerID int64     `json:"containerId"`
	OriginID    string    `json:"originId"`
	OriginName  string    `json:"originName"`
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProjectStorage enables a storage for a project. File links only count for
// a project when their storage is enabled there.
type ProjectStorage struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	StorageID int64     `json:"storageId"`
	CreatorID string    `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
}
