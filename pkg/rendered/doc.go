// Package rendered rebuilds tables from rendered reports so they can be
// compared with the dataset the report was produced from.
//
// A report renders its table as a flat sequence of text cells laid out
// column-first, with each column's header as that column's last cell.
// ExtractCellText pulls those cells out of the report markup,
// FromColumnMajor turns them back into a table, and ReportView shapes the
// source dataset the same way the report shows it.
package rendered
