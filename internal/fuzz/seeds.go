package fuzztests

import "testing"

// addCorpusSeeds registers a corpus covering the constructs the parser
// treats specially: nesting, self-closing tags, comments, directives,
// processing instructions and the recovery paths.
func addCorpusSeeds(f *testing.F) {
	seeds := []string{
		``,
		`<Wix/>`,
		`<Wix></Wix>`,
		`<Wix><Product Id="P" Name="Demo"/></Wix>`,
		`<Wix><Product Id="P"><Component Id="C"/></Product></Wix>`,
		`<?xml version="1.0"?><Wix/>`,
		`<!-- comment --><Wix/>`,
		`<!-- frost-disable-file some-rule --><Wix/>`,
		`<Wix><!-- frost-disable-next-line some-rule --><Product/></Wix>`,
		"<Wix>\n  <Product Id=\"P\">\n    text\n  </Product>\n</Wix>\n",
		// recovery paths
		`<Wix><Product>`,
		`<Wix><Product Id="P`,
		`<Wix><Product></Wix>`,
		`<Wix><Product Id="P" Id="Q"/></Wix>`,
		`</Wix>`,
		`<Wix><A><B></A></Wix>`,
		`<Wix/>trailing`,
		// quoting corners
		`<Product Name="a 'quoted' value"/>`,
		`<Product Name='double "quoted"'/>`,
		`<Product Name=""/>`,
	}
	for _, seed := range seeds {
		f.Add([]byte(seed))
	}
}
