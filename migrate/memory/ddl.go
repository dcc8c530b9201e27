package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
)

func (k *Keyspace) apply(s *statement) error {
	switch {
	case s.Create != nil && s.Create.Keyspace != nil:
		return k.createKeyspace(s.Create.Keyspace)
	case s.Create != nil && s.Create.Table != nil:
		return k.createTable(s.Create.Table)
	case s.Create != nil && s.Create.Type != nil:
		return k.createType(s.Create.Type)
	case s.Create != nil && s.Create.View != nil:
		return k.createView(s.Create.View)
	case s.Drop != nil && s.Drop.Keyspace != nil:
		return k.dropKeyspace(s.Drop.Keyspace)
	case s.Drop != nil && s.Drop.Table != nil:
		return k.dropTable(s.Drop.Table)
	case s.Drop != nil && s.Drop.Type != nil:
		return k.dropType(s.Drop.Type)
	case s.Drop != nil && s.Drop.View != nil:
		return k.dropView(s.Drop.View)
	case s.Alter != nil && s.Alter.Table != nil:
		return k.alterTable(s.Alter.Table)
	case s.Alter != nil && s.Alter.Type != nil:
		return k.alterType(s.Alter.Type)
	default:
		return invalid("unsupported statement")
	}
}

// object resolves a possibly qualified name to an object of this keyspace.
func (k *Keyspace) object(n *qualifiedName) (string, error) {
	keyspace, name := n.split()
	if keyspace == "" {
		keyspace = k.name
	}
	if keyspace != k.name || !k.created {
		return "", invalid("Keyspace '%s' does not exist", keyspace)
	}
	return name, nil
}

func (k *Keyspace) qualified(name string) string {
	return k.name + "." + name
}

func (k *Keyspace) tableIndex(name string) int {
	for i, t := range k.schema.Tables {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func (k *Keyspace) typeIndex(name string) int {
	for i, t := range k.schema.Types {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func (k *Keyspace) viewIndex(name string) int {
	for i, v := range k.schema.Views {
		if v.Name == name {
			return i
		}
	}
	return -1
}

func (k *Keyspace) createKeyspace(c *createKeyspace) error {
	name := ident(c.Name)
	opts := options(c.Options)

	class, ok := opts["replication.class"]
	if !ok {
		return configError("Missing mandatory replication strategy class")
	}
	switch strings.TrimPrefix(class, "org.apache.cassandra.locator.") {
	case cqlgen.SimpleStrategy:
		if _, ok := opts["replication.replication_factor"]; !ok {
			return configError("SimpleStrategy requires a replication_factor strategy option.")
		}
	case cqlgen.NetworkTopologyStrategy:
	default:
		return configError("Unable to find replication strategy class '%s'", class)
	}

	exists := k.others[name] || (name == k.name && k.created)
	if exists {
		if c.IfNotExists {
			return nil
		}
		return alreadyExists("Keyspace %s already exists", name)
	}

	if name == k.name {
		k.created = true
		k.schema = &introspect.KeyspaceSchema{Name: k.name}
	} else {
		k.others[name] = true
	}
	return nil
}

func (k *Keyspace) dropKeyspace(d *dropTarget) error {
	_, name := d.Name.split()
	if d.Name.Second != "" {
		return invalid("Keyspace name cannot be qualified")
	}

	switch {
	case name == k.name && k.created:
		k.created = false
		k.schema = &introspect.KeyspaceSchema{Name: k.name}
		k.records = nil
	case k.others[name]:
		delete(k.others, name)
	case d.IfExists:
	default:
		return configError("Cannot drop non existing keyspace '%s'.", name)
	}
	return nil
}

func (k *Keyspace) createTable(c *createTable) error {
	name, err := k.object(c.Name)
	if err != nil {
		return err
	}
	if k.tableIndex(name) >= 0 || k.viewIndex(name) >= 0 {
		if c.IfNotExists {
			return nil
		}
		return alreadyExists("Cannot add already existing table \"%s\" to keyspace \"%s\"", name, k.name)
	}

	table := introspect.TableMetadata{Name: name}
	types := map[string]*typeRef{}
	var key *primaryKey
	var static []string

	for _, el := range c.Elements {
		if el.PrimaryKey != nil {
			if key != nil {
				return invalid("Multiple PRIMARY KEYs specified (exactly one required)")
			}
			key = el.PrimaryKey
			continue
		}

		col := el.Column
		colName := ident(col.Name)
		if _, dup := types[colName]; dup {
			return invalid("Multiple definition of identifier %s", colName)
		}
		if err := k.checkColumnType(col.Type); err != nil {
			return err
		}
		types[colName] = col.Type
		table.Columns = append(table.Columns, introspect.Column{
			Name:     colName,
			Type:     col.Type.String(),
			Kind:     introspect.KindRegular,
			Position: -1,
		})
		if col.Static {
			static = append(static, colName)
		}
		if col.Primary {
			if key != nil {
				return invalid("Multiple PRIMARY KEYs specified (exactly one required)")
			}
			key = &primaryKey{Partition: []string{col.Name}}
		}
	}
	if key == nil {
		return invalid("No PRIMARY KEY specifed for table '%s' (exactly one required)", name)
	}

	order := map[string]string{}
	for _, opt := range c.Options {
		for _, o := range opt.ClusteringOrder {
			if o.Desc {
				order[ident(o.Column)] = "desc"
			} else {
				order[ident(o.Column)] = "asc"
			}
		}
	}

	if err := assignKeys(table.Columns, types, key, order); err != nil {
		return err
	}
	for _, s := range static {
		for i := range table.Columns {
			if table.Columns[i].Name == s {
				if table.Columns[i].Kind != introspect.KindRegular {
					return invalid("Static column %s cannot be part of the PRIMARY KEY", s)
				}
				table.Columns[i].Kind = introspect.KindStatic
			}
		}
	}

	k.schema.Tables = append(k.schema.Tables, table)
	return nil
}

// assignKeys marks partition and clustering columns and validates them.
func assignKeys(cols []introspect.Column, types map[string]*typeRef, key *primaryKey, order map[string]string) error {
	seen := map[string]bool{}
	mark := func(name string, kind introspect.ColumnKind, pos int) error {
		name = ident(name)
		if seen[name] {
			return invalid("Duplicate definition for %s in PRIMARY KEY", name)
		}
		seen[name] = true

		t, ok := types[name]
		if !ok {
			return invalid("Unknown definition %s referenced in PRIMARY KEY", name)
		}
		if t.needsFreezing() {
			return invalid("Invalid non-frozen collection type for PRIMARY KEY component %s", name)
		}
		for i := range cols {
			if cols[i].Name == name {
				cols[i].Kind = kind
				cols[i].Position = pos
				if kind == introspect.KindClustering {
					cols[i].Order = "asc"
					if o, ok := order[name]; ok {
						cols[i].Order = o
					}
				}
			}
		}
		return nil
	}

	for i, p := range key.Partition {
		if err := mark(p, introspect.KindPartitionKey, i); err != nil {
			return err
		}
	}
	for i, c := range key.Clustering {
		if err := mark(c, introspect.KindClustering, i); err != nil {
			return err
		}
	}
	for col := range order {
		if !seen[col] {
			return invalid("Only clustering key columns can be defined in CLUSTERING ORDER directive")
		}
	}
	return nil
}

func (k *Keyspace) dropTable(d *dropTarget) error {
	name, err := k.object(d.Name)
	if err != nil {
		if d.IfExists {
			return nil
		}
		return err
	}

	i := k.tableIndex(name)
	if i < 0 {
		if k.viewIndex(name) >= 0 {
			return invalid("Cannot use DROP TABLE on Materialized View")
		}
		if d.IfExists {
			return nil
		}
		return invalid("Table '%s' doesn't exist", k.qualified(name))
	}

	var dependents []string
	for _, v := range k.schema.Views {
		if v.BaseTable == name {
			dependents = append(dependents, k.qualified(v.Name))
		}
	}
	if len(dependents) > 0 {
		return invalid("Cannot drop table when materialized views still depend on it (%s)", strings.Join(dependents, ","))
	}

	k.schema.Tables = append(k.schema.Tables[:i], k.schema.Tables[i+1:]...)
	return nil
}

func (k *Keyspace) alterTable(a *alterTable) error {
	name, err := k.object(a.Name)
	if err != nil {
		return err
	}

	i := k.tableIndex(name)
	if i < 0 {
		if k.viewIndex(name) >= 0 {
			return invalid("Cannot use ALTER TABLE on Materialized View")
		}
		return invalid("unconfigured table %s", name)
	}
	table := &k.schema.Tables[i]

	switch act := a.Action; {
	case len(act.Add) > 0:
		return k.addColumns(table, act.Add)
	case act.Alter != nil:
		return k.alterColumnType(table, act.Alter)
	case len(act.Rename) > 0:
		return k.renameColumns(table, act.Rename)
	case len(act.Drop) > 0:
		return k.dropColumns(table, act.Drop)
	default:
		// table properties are accepted and ignored
		return nil
	}
}

func (k *Keyspace) addColumns(table *introspect.TableMetadata, fields []*fieldDef) error {
	added := make([]introspect.Column, 0, len(fields))
	for _, f := range fields {
		name := ident(f.Name)
		if _, ok := table.Column(name); ok {
			return invalid("Invalid column name %s because it conflicts with an existing column", name)
		}
		for _, a := range added {
			if a.Name == name {
				return invalid("Invalid column name %s because it conflicts with an existing column", name)
			}
		}
		if err := k.checkColumnType(f.Type); err != nil {
			return err
		}
		added = append(added, introspect.Column{Name: name, Type: f.Type.String(), Kind: introspect.KindRegular, Position: -1})
	}
	table.Columns = append(table.Columns, added...)
	return nil
}

func (k *Keyspace) alterColumnType(table *introspect.TableMetadata, a *alterColumn) error {
	name := ident(a.Column)
	for i := range table.Columns {
		col := &table.Columns[i]
		if col.Name != name {
			continue
		}
		if err := k.checkColumnType(a.Type); err != nil {
			return err
		}
		to := a.Type.String()
		if !compatible(col.Type, to) {
			return invalid("Cannot change %s from type %s to type %s: types are incompatible.", name, col.Type, to)
		}
		col.Type = to
		return nil
	}
	return invalid("Column %s was not found in table %s", name, table.Name)
}

func (k *Keyspace) renameColumns(table *introspect.TableMetadata, pairs []*renamePair) error {
	for _, p := range pairs {
		from, to := ident(p.From), ident(p.To)

		col, ok := table.Column(from)
		if !ok {
			return invalid("Cannot rename unknown column %s in table %s", from, table.Name)
		}
		if _, exists := table.Column(to); exists {
			return invalid("Cannot rename column %s to %s in table %s; another column of that name already exist", from, to, table.Name)
		}
		if col.Kind != introspect.KindPartitionKey && col.Kind != introspect.KindClustering {
			return invalid("Cannot rename non PRIMARY KEY part %s", from)
		}

		for i := range table.Columns {
			if table.Columns[i].Name == from {
				table.Columns[i].Name = to
			}
		}
		for vi := range k.schema.Views {
			v := &k.schema.Views[vi]
			if v.BaseTable != table.Name {
				continue
			}
			for ci := range v.Columns {
				if v.Columns[ci].Name == from {
					v.Columns[ci].Name = to
				}
			}
		}
	}
	return nil
}

func (k *Keyspace) dropColumns(table *introspect.TableMetadata, names []string) error {
	for _, n := range names {
		name := ident(n)
		col, ok := table.Column(name)
		if !ok {
			return invalid("Column %s was not found in table %s", name, table.Name)
		}
		if col.Kind == introspect.KindPartitionKey || col.Kind == introspect.KindClustering {
			return invalid("Cannot drop PRIMARY KEY part %s", name)
		}
		for _, v := range k.schema.Views {
			if v.BaseTable == table.Name {
				return invalid("Cannot drop column %s on base table %s with materialized views.", name, table.Name)
			}
		}
	}

	kept := table.Columns[:0]
	for _, c := range table.Columns {
		drop := false
		for _, n := range names {
			if c.Name == ident(n) {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, c)
		}
	}
	table.Columns = kept
	return nil
}

func (k *Keyspace) createType(c *createType) error {
	name, err := k.object(c.Name)
	if err != nil {
		return err
	}
	if k.typeIndex(name) >= 0 {
		if c.IfNotExists {
			return nil
		}
		return alreadyExists("A user type of name %s already exists", k.qualified(name))
	}

	udt := introspect.TypeMetadata{Name: name}
	for _, f := range c.Fields {
		field := ident(f.Name)
		for _, existing := range udt.FieldNames {
			if existing == field {
				return invalid("Duplicate field name %s in type %s", field, name)
			}
		}
		if err := k.checkFieldType(name, f.Type); err != nil {
			return err
		}
		udt.FieldNames = append(udt.FieldNames, field)
		udt.FieldTypes = append(udt.FieldTypes, f.Type.String())
	}

	k.schema.Types = append(k.schema.Types, udt)
	return nil
}

func (k *Keyspace) dropType(d *dropTarget) error {
	name, err := k.object(d.Name)
	if err != nil {
		if d.IfExists {
			return nil
		}
		return err
	}

	i := k.typeIndex(name)
	if i < 0 {
		if d.IfExists {
			return nil
		}
		return invalid("No user type named %s exists.", k.qualified(name))
	}

	for _, t := range k.schema.Tables {
		for _, c := range t.Columns {
			if referencesType(c.Type, name) {
				return invalid("Cannot drop user type %s as it is still used by table %s", k.qualified(name), k.qualified(t.Name))
			}
		}
	}
	for _, other := range k.schema.Types {
		for _, ft := range other.FieldTypes {
			if other.Name != name && referencesType(ft, name) {
				return invalid("Cannot drop user type %s as it is still used by user type %s", k.qualified(name), k.qualified(other.Name))
			}
		}
	}

	k.schema.Types = append(k.schema.Types[:i], k.schema.Types[i+1:]...)
	return nil
}

func (k *Keyspace) alterType(a *alterType) error {
	name, err := k.object(a.Name)
	if err != nil {
		return err
	}
	i := k.typeIndex(name)
	if i < 0 {
		return invalid("No user type named %s exists.", k.qualified(name))
	}
	udt := &k.schema.Types[i]

	if f := a.Action.Add; f != nil {
		field := ident(f.Name)
		if udt.HasField(field) {
			return invalid("Cannot add new field %s to type %s: a field of the same name already exists", field, k.qualified(name))
		}
		if err := k.checkFieldType(name, f.Type); err != nil {
			return err
		}
		udt.FieldNames = append(udt.FieldNames, field)
		udt.FieldTypes = append(udt.FieldTypes, f.Type.String())
		return nil
	}

	for _, p := range a.Action.Rename {
		from, to := ident(p.From), ident(p.To)
		idx := -1
		for fi, fn := range udt.FieldNames {
			if fn == from {
				idx = fi
			}
		}
		if idx < 0 {
			return invalid("Unknown field %s in user type %s", from, k.qualified(name))
		}
		if udt.HasField(to) {
			return invalid("Cannot rename field %s to %s in type %s: a field named %s already exists", from, to, k.qualified(name), to)
		}
		udt.FieldNames[idx] = to
	}
	return nil
}

func (k *Keyspace) createView(c *createView) error {
	name, err := k.object(c.Name)
	if err != nil {
		return err
	}
	if k.viewIndex(name) >= 0 || k.tableIndex(name) >= 0 {
		if c.IfNotExists {
			return nil
		}
		return alreadyExists("Cannot add already existing table \"%s\" to keyspace \"%s\"", name, k.name)
	}

	baseName, err := k.object(c.Base)
	if err != nil {
		return err
	}
	bi := k.tableIndex(baseName)
	if bi < 0 {
		return invalid("unconfigured table %s", baseName)
	}
	base := k.schema.Tables[bi]

	var selected []introspect.Column
	if len(c.Columns) == 1 && c.Columns[0] == "*" {
		selected = append(selected, base.Columns...)
	} else {
		for _, n := range c.Columns {
			col, ok := base.Column(ident(n))
			if !ok {
				return invalid("Unknown column name detected in CREATE MATERIALIZED VIEW statement: %s", ident(n))
			}
			selected = append(selected, col)
		}
	}

	keyCols := append(append([]string(nil), c.Key.Partition...), c.Key.Clustering...)
	inKey := map[string]bool{}
	for _, kc := range keyCols {
		inKey[ident(kc)] = true
	}

	var missing []string
	for _, pk := range append(base.PartitionKey(), base.ClusteringKey()...) {
		if !inKey[pk] {
			missing = append(missing, pk)
		}
	}
	if len(missing) > 0 {
		return invalid("Cannot create Materialized View %s without primary key columns from base %s (%s)", name, baseName, strings.Join(missing, ","))
	}

	notNull := map[string]bool{}
	for _, n := range c.NotNull {
		notNull[ident(n)] = true
	}
	var nonKeyInPK []string
	for _, kc := range keyCols {
		kc = ident(kc)
		if !notNull[kc] {
			return invalid("Primary key column '%s' is required to be filtered by 'IS NOT NULL'", kc)
		}
		col, ok := base.Column(kc)
		if !ok {
			return invalid("Unknown column name detected in CREATE MATERIALIZED VIEW statement: %s", kc)
		}
		if col.Kind == introspect.KindRegular || col.Kind == introspect.KindStatic {
			nonKeyInPK = append(nonKeyInPK, kc)
		}
	}
	if len(nonKeyInPK) > 1 {
		return invalid("Cannot include more than one non-primary key column in materialized view primary key (got %s)", strings.Join(nonKeyInPK, ", "))
	}

	// key columns are always part of the view even when not selected
	have := map[string]bool{}
	for _, s := range selected {
		have[s.Name] = true
	}
	for _, kc := range keyCols {
		if !have[ident(kc)] {
			col, _ := base.Column(ident(kc))
			selected = append(selected, col)
			have[col.Name] = true
		}
	}

	types := map[string]*typeRef{}
	for i := range selected {
		selected[i].Kind = introspect.KindRegular
		selected[i].Position = -1
		selected[i].Order = ""
		t, err := parseType(selected[i].Type)
		if err != nil {
			return invalid("Invalid type %s for column %s", selected[i].Type, selected[i].Name)
		}
		types[selected[i].Name] = t
	}

	order := map[string]string{}
	for _, opt := range c.Options {
		for _, o := range opt.ClusteringOrder {
			if o.Desc {
				order[ident(o.Column)] = "desc"
			} else {
				order[ident(o.Column)] = "asc"
			}
		}
	}
	if err := assignKeys(selected, types, c.Key, order); err != nil {
		return err
	}

	k.schema.Views = append(k.schema.Views, introspect.ViewMetadata{Name: name, BaseTable: baseName, Columns: selected})
	return nil
}

func (k *Keyspace) dropView(d *dropTarget) error {
	name, err := k.object(d.Name)
	if err != nil {
		if d.IfExists {
			return nil
		}
		return err
	}

	i := k.viewIndex(name)
	if i < 0 {
		if d.IfExists {
			return nil
		}
		return invalid("Materialized view '%s' doesn't exist", k.qualified(name))
	}
	k.schema.Views = append(k.schema.Views[:i], k.schema.Views[i+1:]...)
	return nil
}

// checkColumnType validates a top-level column type.
func (k *Keyspace) checkColumnType(t *typeRef) error {
	return k.checkType(t, false, "")
}

// checkFieldType validates the type of a field of user type owner. Nested
// user types must be frozen.
func (k *Keyspace) checkFieldType(owner string, t *typeRef) error {
	if t.isUDT() {
		if t.name() == owner {
			return invalid("User type %s cannot reference itself", k.qualified(owner))
		}
		return invalid("A user type cannot contain non-frozen UDTs")
	}
	return k.checkType(t, false, owner)
}

func (k *Keyspace) checkType(t *typeRef, frozen bool, owner string) error {
	switch {
	case t.Frozen != nil:
		if t.Frozen.isNative() {
			return invalid("frozen<> is only allowed on collections, tuples, and user-defined types (got %s)", t.Frozen.String())
		}
		return k.checkType(t.Frozen, true, owner)

	case t.isNative():
		return nil

	case t.isCollection():
		collection := strings.ToLower(t.Name)
		arity := collectionArity[collection]
		if (arity > 0 && len(t.Args) != arity) || len(t.Args) == 0 {
			return invalid("Bad number of type arguments for %s", collection)
		}
		for _, arg := range t.Args {
			if !frozen && collection != "tuple" && arg.needsFreezing() {
				if arg.isUDT() {
					return invalid("Non-frozen UDTs are not allowed inside collections: %s", t.String())
				}
				return invalid("Non-frozen collections are not allowed inside collections: %s", t.String())
			}
			if err := k.checkType(arg, frozen || collection == "tuple", owner); err != nil {
				return err
			}
		}
		return nil

	default:
		if len(t.Args) > 0 {
			return invalid("Unknown type %s", t.String())
		}
		name := t.name()
		if owner != "" && name == owner {
			return invalid("User type %s cannot reference itself", k.qualified(owner))
		}
		if k.typeIndex(name) < 0 {
			return invalid("Unknown type %s", k.qualified(name))
		}
		return nil
	}
}

func referencesType(stored, name string) bool {
	t, err := parseType(stored)
	if err != nil {
		return false
	}
	for _, ref := range t.referencedTypes(nil) {
		if ref == name {
			return true
		}
	}
	return false
}

// Describe renders the keyspace as CREATE statements, types first.
func (k *Keyspace) Describe() string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var b strings.Builder
	types := append([]introspect.TypeMetadata(nil), k.schema.Types...)
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	for _, t := range types {
		fields := make([]cqlgen.Field, len(t.FieldNames))
		for i := range t.FieldNames {
			fields[i] = cqlgen.Field{Name: t.FieldNames[i], Type: t.FieldTypes[i]}
		}
		fmt.Fprintln(&b, cqlgen.CreateType(t.Name, fields))
	}

	tables := append([]introspect.TableMetadata(nil), k.schema.Tables...)
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	for _, t := range tables {
		cols := append([]introspect.Column(nil), t.Columns...)
		introspect.SortColumns(cols)
		fields := make([]cqlgen.Field, len(cols))
		for i, c := range cols {
			fields[i] = cqlgen.Field{Name: c.Name, Type: c.Type}
		}
		stmt, err := cqlgen.CreateTable(t.Name, fields, t.PartitionKey(), t.ClusteringKey())
		if err != nil {
			fmt.Fprintf(&b, "-- %s: %v\n", t.Name, err)
			continue
		}
		fmt.Fprintln(&b, stmt)
	}
	return b.String()
}
