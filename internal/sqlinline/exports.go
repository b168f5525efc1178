package sqlinline

// Export queries read the whole filtered range; bounds are inclusive and a null
// bound is open.

const QExportReports = `--sql eeff69b8-baa0-4604-be5c-c1414b604d00
select *
from export_entity_reports(
  p_entity_ids => $1::int[],
  p_date_from => $2::date,
  p_date_to => $3::date
);
`

const QExportTransactions = `--sql 0d6aac0d-fb14-4904-b02b-d157665e4dd3
select *
from export_entity_transactions(
  p_entity_ids => $1::int[],
  p_date_from => $2::date,
  p_date_to => $3::date
);
`
