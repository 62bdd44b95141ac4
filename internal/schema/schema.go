package schema

// Entity identifies one of the tracked tables. The set is closed: every
// switch over Entity in this codebase covers all seven values, and the
// descriptor table below must have an entry for each.
type Entity string

const (
	AccountCategories     Entity = "accountcategories"
	Accounts              Entity = "accounts"
	TransactionGroups     Entity = "transactiongroups"
	TransactionCategories Entity = "transactioncategories"
	Transactions          Entity = "transactions"
	Recurrings            Entity = "recurrings"
	Configurations        Entity = "configurations"
)

// All lists every entity in a stable order.
var All = []Entity{
	AccountCategories,
	Accounts,
	TransactionGroups,
	TransactionCategories,
	Transactions,
	Recurrings,
	Configurations,
}

func (e Entity) Valid() bool {
	_, ok := descriptors[e]
	return ok
}

func (e Entity) String() string { return string(e) }

// ForeignKey declares that Field on the owning entity references the id
// of a record in References. Nullable fields may legally hold no value.
type ForeignKey struct {
	Field      string
	References Entity
	Nullable   bool
}

// UniqueConstraint is a group of fields whose combined values must be
// unique among live records of the same tenant.
type UniqueConstraint struct {
	Name   string
	Fields []string
}

// Descriptor is the relational shape of one entity, expressed as data so
// backends without a constraint engine get the same rules applied in
// application code.
type Descriptor struct {
	ForeignKeys []ForeignKey
	Uniques     []UniqueConstraint
}

var descriptors = map[Entity]Descriptor{
	AccountCategories: {
		Uniques: []UniqueConstraint{
			{Name: "accountcategories_name_unique", Fields: []string{"name"}},
		},
	},
	Accounts: {
		ForeignKeys: []ForeignKey{
			{Field: "categoryid", References: AccountCategories},
		},
		Uniques: []UniqueConstraint{
			{Name: "accounts_name_unique", Fields: []string{"name"}},
		},
	},
	TransactionGroups: {
		Uniques: []UniqueConstraint{
			{Name: "transactiongroups_name_unique", Fields: []string{"name"}},
		},
	},
	TransactionCategories: {
		ForeignKeys: []ForeignKey{
			{Field: "groupid", References: TransactionGroups},
		},
		Uniques: []UniqueConstraint{
			{Name: "transactioncategories_name_unique", Fields: []string{"name"}},
		},
	},
	Transactions: {
		ForeignKeys: []ForeignKey{
			{Field: "accountid", References: Accounts},
			{Field: "categoryid", References: TransactionCategories},
			{Field: "transferaccountid", References: Accounts, Nullable: true},
			{Field: "transferid", References: Transactions, Nullable: true},
		},
	},
	Recurrings: {
		ForeignKeys: []ForeignKey{
			{Field: "sourceaccountid", References: Accounts},
			{Field: "categoryid", References: TransactionCategories, Nullable: true},
		},
	},
	Configurations: {
		Uniques: []UniqueConstraint{
			{Name: "configurations_key_table_unique", Fields: []string{"key", "table"}},
		},
	},
}

// Describe returns the descriptor for an entity.
func Describe(e Entity) (Descriptor, bool) {
	d, ok := descriptors[e]
	return d, ok
}

// ForeignKeys returns the FK list for an entity, nil for unknown entities.
func ForeignKeys(e Entity) []ForeignKey {
	return descriptors[e].ForeignKeys
}

// Uniques returns the unique-constraint groups for an entity.
func Uniques(e Entity) []UniqueConstraint {
	return descriptors[e].Uniques
}

// Dependent is a reverse foreign-key edge: records of Entity whose Field
// holds a given id depend on that id's record.
type Dependent struct {
	Entity Entity
	Field  string
}

var dependents map[Entity][]Dependent

func init() {
	dependents = make(map[Entity][]Dependent)
	for _, e := range All {
		for _, fk := range descriptors[e].ForeignKeys {
			dependents[fk.References] = append(dependents[fk.References], Dependent{
				Entity: e,
				Field:  fk.Field,
			})
		}
	}
}

// Dependents returns every (entity, field) pair that references e. The
// transferid edge makes Transactions a dependent of itself; the cascade
// walker's visited set keeps that from looping.
func Dependents(e Entity) []Dependent {
	return dependents[e]
}
