package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// pngStub is enough of a PNG for media type checks; nothing decodes it.
var pngStub = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
   <rootfiles>
      <rootfile full-path="content.opf" media-type="application/oebps-package+xml"/>
   </rootfiles>
</container>
`

const testOPF = `<?xml version="1.0" encoding="utf-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="BookId">id12345</dc:identifier>
    <dc:title>Sample Book</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="front" href="front.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter2" href="chapter2.xhtml" media-type="application/xhtml+xml"/>
    <item id="whale" href="images/whale.png" media-type="image/png"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="front"/>
    <itemref idref="chapter1"/>
    <itemref idref="chapter2"/>
  </spine>
</package>
`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter 1</text></navLabel>
      <content src="chapter1.xhtml"/>
      <navPoint id="np1a" playOrder="2">
        <navLabel><text>A Digression</text></navLabel>
        <content src="chapter1.xhtml#digression"/>
      </navPoint>
    </navPoint>
    <navPoint id="np2" playOrder="3">
      <navLabel><text>Chapter 2</text></navLabel>
      <content src="chapter2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>
`

const testFront = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Front</title></head>
<body><p>Copyright notice and dedication.</p></body></html>
`

const testChapter1 = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
  <head><title>Chapter 1</title></head>
  <body>
    <h1>Loomings</h1>
    <p>Hello world! This is a simple EPUB test.</p>
    <img src="images/whale.png" alt="a whale"/>
    <p id="digression">Keep adding some text for test.</p>
  </body>
</html>
`

const testChapter2 = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
  <head><title>Chapter 2</title></head>
  <body><p>Another sentence to ensure enough content. End.</p></body>
</html>
`

const minimalOPF = `<?xml version="1.0" encoding="utf-8"?>
<package version="3.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="BookId">id12345</dc:identifier>
    <dc:title>Sample Book</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter1" />
  </spine>
</package>
`

const minimalChapter = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
  <head><title>Chapter 1</title></head>
  <body><p>Hello world! This is a simple EPUB test. It's long enough to check segmentation into 160 characters. Keep adding some text for test. Adding more sentences to exceed 160 characters. Another sentence to ensure enough content for multiple cards. And again some more filler text to complete the test of the card splitting algorithm. End.</p></body>
</html>
`

type epubFile struct {
	name string
	data []byte
}

// writeEPUB builds a small EPUB with an NCX, front matter and an image in a
// temp dir and returns its path.
func writeEPUB(t *testing.T) string {
	t.Helper()
	return writeEPUBFiles(t, []epubFile{
		{"META-INF/container.xml", []byte(testContainer)},
		{"content.opf", []byte(testOPF)},
		{"toc.ncx", []byte(testNCX)},
		{"front.xhtml", []byte(testFront)},
		{"chapter1.xhtml", []byte(testChapter1)},
		{"chapter2.xhtml", []byte(testChapter2)},
		{"images/whale.png", pngStub},
	})
}

// writeMinimalEPUB builds a one-chapter EPUB with no NCX and no headings.
func writeMinimalEPUB(t *testing.T) string {
	t.Helper()
	return writeEPUBFiles(t, []epubFile{
		{"META-INF/container.xml", []byte(testContainer)},
		{"content.opf", []byte(minimalOPF)},
		{"chapter1.xhtml", []byte(minimalChapter)},
	})
}

func writeEPUBFiles(t *testing.T, files []epubFile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.epub")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("CreateHeader: %v", err)
	}
	mt.Write([]byte("application/epub+zip"))

	for _, file := range files {
		w, err := zw.Create(file.name)
		if err != nil {
			t.Fatalf("Create %s: %v", file.name, err)
		}
		if _, err := w.Write(file.data); err != nil {
			t.Fatalf("Write %s: %v", file.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close: %v", err)
	}
	return path
}
