package storage

import (
	"fmt"
	"strings"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/config"
)

// New builds the backend selected by cfg. Azure wins when cloud storage is
// enabled; otherwise files go to local disk.
func New(cfg *config.Config) (Storage, error) {
	if cfg.CloudStorage.Enabled {
		switch strings.ToLower(cfg.CloudStorage.Provider) {
		case "azure", "":
			az, err := NewAzureBlobStorage(
				cfg.CloudStorage.Endpoint,
				cfg.CloudStorage.AccessKey,
				cfg.CloudStorage.SecretKey,
				cfg.CloudStorage.PublicContainer,
				cfg.CloudStorage.PrivateContainer,
				cfg.Storage.PublicURL,
			)
			if err != nil {
				return nil, err
			}
			return az, nil
		default:
			return nil, fmt.Errorf("storage: unsupported cloud provider %q", cfg.CloudStorage.Provider)
		}
	}
	return NewLocalStorage(cfg.Storage.Path, cfg.Storage.PublicURL), nil
}
