package eccu

import (
	"github.com/akamai-api/akamai-api/internal/fields"
	"github.com/akamai-api/akamai-api/internal/soap"
)

// eccuInfo is the eccuInfo element returned by getInfo.
type eccuInfo struct {
	Contents              string `mapstructure:"contents"`
	FileSize              int    `mapstructure:"fileSize"`
	FileName              string `mapstructure:"filename"`
	MD5Digest             string `mapstructure:"md5Digest"`
	ExtendedStatusMessage string `mapstructure:"extendedStatusMessage"`
	StatusCode            int    `mapstructure:"statusCode"`
	StatusMessage         string `mapstructure:"statusMessage"`
	StatusUpdateDate      string `mapstructure:"statusUpdateDate"`
	FileID                int    `mapstructure:"fileId"`
	Notes                 string `mapstructure:"notes"`

	PropertyName           string `mapstructure:"propertyName"`
	PropertyNameExactMatch bool   `mapstructure:"propertyNameExactMatch"`
	PropertyType           string `mapstructure:"propertyType"`

	StatusChangeEmail string `mapstructure:"statusChangeEmail"`
	UploadDate        string `mapstructure:"uploadDate"`
	UploadedBy        string `mapstructure:"uploadedBy"`
	VersionString     string `mapstructure:"versionString"`
}

func decodeInfo(n soap.Node, info *eccuInfo) error {
	return fields.Decode(map[string]any(n), info)
}
