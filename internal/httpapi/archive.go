package httpapi

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
)

// readZippedFile extracts one entry's raw bytes from booksDir/zipFile.
func readZippedFile(booksDir, zipFile, fileName string) ([]byte, error) {
	path := filepath.Join(booksDir, zipFile)
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != fileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", fileName, zipFile, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in %s", fileName, zipFile)
}

func openSearchXML(proto, host, baseURL string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<OpenSearchDescription xmlns="http://a9.com/-/spec/opensearch/1.1/">
  <ShortName>Porcula</ShortName>
  <Description>Library search</Description>
  <Url type="text/html" template="%s://%s%s/home.html?query={searchTerms}"/>
  <Language>ru-RU</Language>
  <OutputEncoding>UTF-8</OutputEncoding>
  <InputEncoding>UTF-8</InputEncoding>
</OpenSearchDescription>`, proto, host, baseURL)
}
