package sqlinline

const QSearchEntitiesAndPeople = `--sql 66885f8c-979a-48d4-ac20-4a3cb442d1c3
select *
from search_entities_and_people(p_query => $1::text, p_limit => $2::int, p_offset => $3::int);
`
