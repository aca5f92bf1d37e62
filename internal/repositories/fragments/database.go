package fragments

const (
	GenericRetrieveQuery = "SELECT * FROM %s.%s WHERE %s = ?"
	GenericPersistQuery  = "INSERT INTO %s.%s (%s) VALUES (%s)"
	Id                   = "sample_id"
	FragmentPrefix       = "fragment_"
)

type Database interface {
	Query(storeId string, query *Query) (map[string]interface{}, error)
	Persist(storeId string, sampleId string, columns map[string]interface{}) error
}
