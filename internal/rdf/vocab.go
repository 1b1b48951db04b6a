package rdf

// Namespaces.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	FOAFNamespace = "http://xmlns.com/foaf/0.1/"
	DCTNamespace  = "http://purl.org/dc/terms/"
	BIBONamespace = "http://purl.org/ontology/bibo/"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// Terms used by the providers, the reconciliation queries and the registry.
const (
	RDFType = RDFNamespace + "type"

	OWLSameAs = OWLNamespace + "sameAs"

	FOAFPerson       = FOAFNamespace + "Person"
	FOAFGroup        = FOAFNamespace + "Group"
	FOAFMember       = FOAFNamespace + "member"
	FOAFName         = FOAFNamespace + "name"
	FOAFFirstName    = FOAFNamespace + "firstName"
	FOAFLastName     = FOAFNamespace + "lastName"
	FOAFPublications = FOAFNamespace + "publications"

	DCTTitle    = DCTNamespace + "title"
	DCTCreator  = DCTNamespace + "creator"
	DCTIssued   = DCTNamespace + "issued"
	DCTIsPartOf = DCTNamespace + "isPartOf"
	DCTSubject  = DCTNamespace + "subject"

	BIBODocument    = BIBONamespace + "Document"
	BIBOArticle     = BIBONamespace + "AcademicArticle"
	BIBOJournal     = BIBONamespace + "Journal"
	BIBOProceedings = BIBONamespace + "Proceedings"
	BIBODOI         = BIBONamespace + "doi"
	BIBOISSN        = BIBONamespace + "issn"
	BIBOVolume      = BIBONamespace + "volume"
	BIBOPages       = BIBONamespace + "pages"
	BIBOURI         = BIBONamespace + "uri"

	XSDGYear   = XSDNamespace + "gYear"
	XSDInteger = XSDNamespace + "integer"
)
