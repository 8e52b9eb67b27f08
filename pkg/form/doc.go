// Package form holds the editing state of a product or page: typed values,
// discriminator driven detail sections, ordered repeatable groups nested two
// levels deep, attachments, a bounded image list and the tombstones of
// persisted records removed during the session.
package form
