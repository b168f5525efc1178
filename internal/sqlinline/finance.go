package sqlinline

const QEntityDetails = `--sql 02ff8099-cb5f-44f0-a803-24316dd3c3e2
select * from get_entity_details(p_entity_id => $1::int);
`

const QEntityFinancialSummary = `--sql 679beef7-8231-420b-bfb1-446cf5eb21e3
select * from get_entity_financial_summary(p_entity_id => $1::int);
`

const QEntitySummaryStats = `--sql f3d439aa-8e87-45a6-92ca-044f8a24472c
select * from get_entity_summary_stats(p_entity_id => $1::int);
`

const QEntityTransactions = `--sql a7c0c190-764a-4182-bff1-70d7cf81ca9f
select *
from get_entity_transactions(p_entity_id => $1::int, p_limit => $2::int, p_offset => $3::int);
`

const QEntityDonations = `--sql baf3e093-fce4-4934-915c-6004c05ec43f
select *
from get_entity_donations(p_entity_id => $1::int, p_limit => $2::int, p_offset => $3::int);
`

const QEntityReports = `--sql 996f52bc-db8f-4d60-a667-75a3d3d0d5c1
select *
from get_entity_reports(p_entity_id => $1::int, p_limit => $2::int, p_offset => $3::int);
`

const QEntityTopDonors = `--sql 992c8e5e-d71f-4572-b7a0-0e385042c756
select *
from get_entity_top_donors(p_entity_id => $1::int, p_limit => $2::int, p_offset => $3::int);
`
