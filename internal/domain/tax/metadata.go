package tax

// MetadataNamespace is the private metadata namespace owned by this
// integration. Every excise attribute the host platform stores on a product
// type or variant lives under a key of the form "<namespace>:<FieldName>".
const MetadataNamespace = "mirumee.taxes.avalara_excise"

// MetadataKey returns the namespaced private metadata key for a field name
func MetadataKey(fieldName string) string {
	return MetadataNamespace + ":" + fieldName
}

// Field names read from private metadata. UnitOfMeasure and
// UnitQuantityUnitOfMeasure resolve at the product-type level; the
// remaining keys resolve at the variant level.
const (
	MetadataFieldUnitOfMeasure             = "UnitOfMeasure"
	MetadataFieldUnitQuantity              = "UnitQuantity"
	MetadataFieldUnitQuantityUnitOfMeasure = "UnitQuantityUnitOfMeasure"
	MetadataFieldCustomString1             = "CustomString1"
	MetadataFieldCustomString2             = "CustomString2"
	MetadataFieldCustomString3             = "CustomString3"
	MetadataFieldCustomNumeric1            = "CustomNumeric1"
	MetadataFieldCustomNumeric2            = "CustomNumeric2"
	MetadataFieldCustomNumeric3            = "CustomNumeric3"
	MetadataFieldItemizedTaxes             = "itemized_taxes"
)
