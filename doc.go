/*
Package objtree implements a dynamic tree value whose nodes can be backed by
pluggable external storage.

An [Object] holds one of: nothing (the zero value), nil, a bool, an int, a
uint, a float, a string, a list, a sorted map, an insertion-ordered map, or a
binding to a [DataSource]. Containers are addressed uniformly by [Key] and
navigated with the same Get/Set/Del/iteration API whether the data sits in
memory or behind an adapter.

# Trees and parents

Objects are small handles; copying one shares the node. Every node placed in
a container knows its container: Parent, Root, Path and KeyOf follow that
back-link, and removing a node from its container clears it. The back-link is
deliberately weak, so a tree never forms an ownership cycle. A node has at
most one parent; storing an already-parented value stores a deep copy.

# Data sources

Binding an adapter produces a node that loads lazily: a complete adapter
reads its whole value on first structural access, a sparse one reads single
keys on demand and can iterate ranges without materializing. Mutations stay
in the cache until Save, which writes complete values wholesale and routes
sparse entries through WriteKey/DeleteKey followed by one Commit. Deletions
on sparse sources are tracked as tombstones until saved.

Adapters for filesystem trees, bbolt databases and DynamoDB tables live in
the fstree, boltstore and dynamostore subpackages, and a URI scheme registry
([RegisterScheme], [Open]) connects address strings to adapters.

# Errors

Misusing the API panics with a typed error: touching an empty reference,
reading a value as the wrong kind, indexing out of range, or writing through
a read-only binding. Adapter I/O failures follow the binding's [Options]:
they panic, or they are recorded on the node and reported by IsValid.
*/
package objtree
