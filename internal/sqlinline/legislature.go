package sqlinline

const QPersonOverview = `--sql 90375d09-c1ff-4633-9f3d-b6b0b09b24d5
select * from get_person_overview(p_person_id => $1::int);
`

const QPersonSessions = `--sql da63138c-701d-4114-8b2f-487f8086c764
select * from get_person_sessions(p_person_id => $1::int);
`

// get_person_finance_overview returns one row per linked entity with that
// entity's totals.
const QPersonFinanceOverview = `--sql 85e4c78c-cf66-4d32-b6ac-c28d0a3a27eb
select * from get_person_finance_overview(p_person_id => $1::int);
`

const QPersonSessionBillVotes = `--sql 39e065d9-1a82-4291-823e-7aea3559110a
select *
from get_person_session_bill_votes(
  p_person_id => $1::int,
  p_session_id => $2::int,
  p_limit => $3::int,
  p_offset => $4::int
);
`

const QPersonVotes = `--sql b5c82226-2cdb-4ed1-93c2-145e40ae8951
select *
from get_person_votes(p_person_id => $1::int, p_limit => $2::int, p_offset => $3::int);
`

// get_bill_details repeats the bill columns once per sponsor; a bill without
// sponsors yields one row with null sponsor columns.
const QBillDetails = `--sql a747381c-53d6-4d92-97b6-0cb33d3d4982
select * from get_bill_details(p_bill_id => $1::int);
`

const QBillRollCall = `--sql 65e60198-6d59-4001-b093-b51457b540a4
select * from get_bill_rollcall(p_bill_id => $1::int);
`

const QListBills = `--sql 15e254f9-daba-48c3-8843-8d8429438e50
select *
from list_bills(
  p_query => nullif($1::text, ''),
  p_session_id => nullif($2::int, 0),
  p_limit => $3::int,
  p_offset => $4::int
);
`

const QListSessions = `--sql 8687f90b-f995-4ff9-b362-9597425093ee
select * from list_sessions();
`
