// Package types defines the public contracts of rowmap: the Entity marker
// embedded by mapped structs, deferred references (Lazy, Ref), the
// EntityManager and Executor interfaces, backend configuration, and the
// standard error values.
//
// A mapped type embeds Entity and declares its columns with `orm` struct
// tags:
//
//	type Order struct {
//	    types.Entity `orm:"table:orders"`
//	    ID          int64         `orm:"id,identity"`
//	    OrderNumber string
//	    Items       []*OrderItem  `orm:"one_to_many,join:order_id"`
//	}
package types
