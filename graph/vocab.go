package graph

// Namespace is the base IRI of every entity minted by the catalog.
const Namespace = "http://yourprojectname.org/"

// Entity and ontology namespaces.
const (
	OntologyNamespace  = Namespace + "ontology/"
	DatasetNamespace   = Namespace + "dataset/"
	ResourceNamespace  = Namespace + "resource/"
	PublisherNamespace = Namespace + "publisher/"
	GroupNamespace     = Namespace + "group/"
	TagNamespace       = Namespace + "tag/"
)

// Standard vocabulary namespaces.
const (
	RDFNamespace     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	DCATNamespace    = "http://www.w3.org/ns/dcat#"
	DCTermsNamespace = "http://purl.org/dc/terms/"
	FOAFNamespace    = "http://xmlns.com/foaf/0.1/"
	SKOSNamespace    = "http://www.w3.org/2004/02/skos/core#"
	XSDNamespace     = "http://www.w3.org/2001/XMLSchema#"
)

// Class IRIs.
const (
	// ClassDataset is a catalog entry.
	ClassDataset = DCATNamespace + "Dataset"

	// ClassDistribution is one downloadable variant of a dataset.
	ClassDistribution = DCATNamespace + "Distribution"

	// ClassAgent is a publisher.
	ClassAgent = FOAFNamespace + "Agent"

	// ClassConcept is a tag or theme.
	ClassConcept = SKOSNamespace + "Concept"
)

// Property IRIs.
const (
	PropType         = RDFNamespace + "type"
	PropTitle        = DCTermsNamespace + "title"
	PropDescription  = DCTermsNamespace + "description"
	PropPublisher    = DCTermsNamespace + "publisher"
	PropCreated      = DCTermsNamespace + "created"
	PropModified     = DCTermsNamespace + "modified"
	PropLicense      = DCTermsNamespace + "license"
	PropKeyword      = DCATNamespace + "keyword"
	PropTheme        = DCATNamespace + "theme"
	PropDistribution = DCATNamespace + "distribution"
	PropDownloadURL  = DCATNamespace + "downloadURL"
	PropMediaType    = DCATNamespace + "mediaType"
	PropLandingPage  = DCATNamespace + "landingPage"
	PropName         = FOAFNamespace + "name"
	PropPrefLabel    = SKOSNamespace + "prefLabel"

	// PropSimilarTo links two datasets whose embeddings are closely aligned.
	// It is always asserted in both directions.
	PropSimilarTo = OntologyNamespace + "similarTo"
)

// Datatype IRIs.
const (
	XSDString  = XSDNamespace + "string"
	XSDInteger = XSDNamespace + "integer"
	XSDDecimal = XSDNamespace + "decimal"
	XSDDouble  = XSDNamespace + "double"
	XSDBoolean = XSDNamespace + "boolean"
	XSDGYear   = XSDNamespace + "gYear"
)

// DefaultPrefixes are available to every pattern query without a PREFIX
// declaration.
var DefaultPrefixes = map[string]string{
	"rdf":     RDFNamespace,
	"dcat":    DCATNamespace,
	"dcterms": DCTermsNamespace,
	"dct":     DCTermsNamespace,
	"foaf":    FOAFNamespace,
	"skos":    SKOSNamespace,
	"xsd":     XSDNamespace,
	"ex":      OntologyNamespace,
}
